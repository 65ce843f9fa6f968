package mock

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/kitbuilder587/gnews-go/pkg/gnews"
)

type Call struct {
	Endpoint string
	Query    string
	Params   gnews.Params
}

type Client struct {
	Response gnews.Response
	Error    error
	Delay    time.Duration

	CallCount int
	LastCall  Call
	AllCalls  []Call

	mu sync.Mutex
}

var _ gnews.API = (*Client)(nil)

func New() *Client {
	return &Client{}
}

func (c *Client) WithResponse(resp gnews.Response) *Client {
	c.Response = resp
	return c
}

// WithArticles - короткий способ собрать ответ из заголовков
func (c *Client) WithArticles(titles ...string) *Client {
	articles := make([]any, len(titles))
	for i, title := range titles {
		articles[i] = map[string]any{"title": title}
	}
	c.Response = gnews.Response{
		"totalArticles": len(titles),
		"articles":      articles,
	}
	return c
}

func (c *Client) WithError(err error) *Client {
	c.Error = err
	return c
}

func (c *Client) WithDelay(delay time.Duration) *Client {
	c.Delay = delay
	return c
}

func (c *Client) SearchArticles(ctx context.Context, query string, params gnews.Params) (gnews.Response, error) {
	return c.call(ctx, Call{Endpoint: gnews.SearchPath, Query: query, Params: maps.Clone(params)})
}

func (c *Client) GetHeadlines(ctx context.Context, params gnews.Params) (gnews.Response, error) {
	return c.call(ctx, Call{Endpoint: gnews.HeadlinesPath, Params: maps.Clone(params)})
}

func (c *Client) call(ctx context.Context, call Call) (gnews.Response, error) {
	c.mu.Lock()
	c.CallCount++
	c.LastCall = call
	c.AllCalls = append(c.AllCalls, call)
	delay := c.Delay
	err := c.Error
	resp := c.Response
	c.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if err != nil {
		return nil, err
	}
	if resp == nil {
		return gnews.Response{"totalArticles": 0, "articles": []any{}}, nil
	}
	return resp, nil
}

func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallCount = 0
	c.LastCall = Call{}
	c.AllCalls = nil
}
