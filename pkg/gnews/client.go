// Package gnews - клиент GNews API v4 (https://gnews.io/docs/v4).
package gnews

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"time"

	"go.uber.org/zap"
)

const BaseURL = "https://gnews.io/api/v4"

const (
	SearchPath    = "/search"
	HeadlinesPath = "/top-headlines"
)

const unknownErrorMessage = "Unknown error occurred"

var (
	errNotObject    = errors.New("response is not a JSON object")
	errTrailingData = errors.New("unexpected data after JSON object")
)

// исходы запроса для Observer
const (
	OutcomeOK             = "ok"
	OutcomeAPIError       = "api_error"
	OutcomeTransportError = "transport_error"
	OutcomeDecodeError    = "decode_error"
)

type API interface {
	SearchArticles(ctx context.Context, query string, params Params) (Response, error)
	GetHeadlines(ctx context.Context, params Params) (Response, error)
}

type Observer interface {
	ObserveRequest(endpoint, outcome string, duration time.Duration)
}

// Config - дефолты клиента. Пустая строка и 0 означают null.
type Config struct {
	Language     string
	Country      string
	MaxResults   int
	AllowNulls   bool
	NullEncoding NullEncoding
}

func DefaultConfig() Config {
	return Config{
		Language:   "en",
		MaxResults: 10,
		AllowNulls: true,
	}
}

func (c Config) defaultLang() any {
	if c.Language == "" {
		return nil
	}
	return c.Language
}

func (c Config) defaultCountry() any {
	if c.Country == "" {
		return nil
	}
	return c.Country
}

func (c Config) defaultMax() any {
	if c.MaxResults == 0 {
		return nil
	}
	return c.MaxResults
}

type Client struct {
	apiKey    string
	cfg       Config
	transport Transport
	logger    *zap.Logger
	observer  Observer

	// для транспорта по умолчанию, если WithTransport не задан
	httpClient *http.Client
	timeout    time.Duration
}

var _ API = (*Client)(nil)

func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, &ConfigError{Err: ErrMissingAPIKey}
	}

	c := &Client{
		apiKey: apiKey,
		cfg:    DefaultConfig(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	// приоритет: WithTransport, затем WithHTTPClient, затем WithTimeout
	if c.transport == nil {
		hc := c.httpClient
		if hc == nil {
			hc = NewHTTPClient(c.timeout)
		}
		c.transport = NewHTTPTransport(hc)
	}

	return c, nil
}

func (c *Client) APIKey() string {
	return c.apiKey
}

func (c *Client) Config() Config {
	return c.cfg
}

func (c *Client) SearchArticles(ctx context.Context, query string, params Params) (Response, error) {
	reqParams := c.MergeParams(params)
	reqParams[ParamQuery] = query

	return c.do(ctx, SearchPath, reqParams)
}

func (c *Client) GetHeadlines(ctx context.Context, params Params) (Response, error) {
	return c.do(ctx, HeadlinesPath, c.MergeParams(params))
}

func (c *Client) do(ctx context.Context, endpoint string, params Params) (Response, error) {
	start := time.Now()
	query := params.Values(c.cfg.NullEncoding)

	status, body, err := c.transport.Get(ctx, BaseURL+endpoint, query)
	if err != nil {
		c.observe(endpoint, OutcomeTransportError, start)
		c.logger.Warn("gnews request failed",
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return nil, &APIError{
			Message:  "HTTP request failed: " + err.Error(),
			Endpoint: endpoint,
			Err:      err,
		}
	}

	// тело разбираем при любом статусе: в нем описание ошибки
	resp, decodeErr := decodeResponse(body)

	if status != http.StatusOK {
		apiErr := &APIError{
			Message:    errorMessage(resp),
			StatusCode: status,
			Endpoint:   endpoint,
		}
		c.observe(endpoint, OutcomeAPIError, start)
		c.logger.Warn("gnews api error",
			zap.String("endpoint", endpoint),
			zap.Int("status", status),
			zap.String("message", apiErr.Message),
		)
		return nil, apiErr
	}

	if decodeErr != nil {
		c.observe(endpoint, OutcomeDecodeError, start)
		c.logger.Warn("gnews response decode failed",
			zap.String("endpoint", endpoint),
			zap.Error(decodeErr),
		)
		return nil, &APIError{
			Message:    "decode response: " + decodeErr.Error(),
			StatusCode: status,
			Endpoint:   endpoint,
			Err:        decodeErr,
		}
	}

	c.observe(endpoint, OutcomeOK, start)
	c.logger.Debug("gnews request",
		zap.String("endpoint", endpoint),
		zap.String("query", redactQuery(query).Encode()),
		zap.Int("status", status),
		zap.Duration("duration", time.Since(start)),
	)

	return resp, nil
}

func (c *Client) observe(endpoint, outcome string, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveRequest(endpoint, outcome, time.Since(start))
	}
}

func decodeResponse(body []byte) (Response, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var resp Response
	if err := dec.Decode(&resp); err != nil {
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}
	// null
	if resp == nil {
		return nil, errNotObject
	}
	return resp, nil
}

// errorMessage достает errors[0] из тела ответа. GNews обычно отдает список
// строк, но встречается и объект {поле: сообщение}.
func errorMessage(body Response) string {
	switch errs := body["errors"].(type) {
	case []any:
		if len(errs) > 0 {
			if msg := messageOf(errs[0]); msg != "" {
				return msg
			}
		}
	case map[string]any:
		keys := slices.Sorted(maps.Keys(errs))
		if len(keys) > 0 {
			if msg := messageOf(errs[keys[0]]); msg != "" {
				return msg
			}
		}
	case string:
		if errs != "" {
			return errs
		}
	}
	return unknownErrorMessage
}

func messageOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any:
		if len(t) == 0 {
			return ""
		}
		return messageOf(t[0])
	default:
		return fmt.Sprint(t)
	}
}
