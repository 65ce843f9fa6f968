package gnews

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Option func(*Client)

func WithConfig(cfg Config) Option {
	return func(c *Client) {
		c.cfg = cfg
	}
}

func WithLanguage(lang string) Option {
	return func(c *Client) {
		c.cfg.Language = lang
	}
}

func WithCountry(country string) Option {
	return func(c *Client) {
		c.cfg.Country = country
	}
}

func WithMaxResults(n int) Option {
	return func(c *Client) {
		c.cfg.MaxResults = n
	}
}

func WithAllowNulls(allow bool) Option {
	return func(c *Client) {
		c.cfg.AllowNulls = allow
	}
}

func WithNullEncoding(enc NullEncoding) Option {
	return func(c *Client) {
		c.cfg.NullEncoding = enc
	}
}

// WithDefaults переопределяет дефолты из словаря. Учитываются только
// lang, country, max и nullable, остальные ключи игнорируются.
func WithDefaults(defaults map[string]any) Option {
	return func(c *Client) {
		for key, v := range defaults {
			switch key {
			case ParamLang:
				c.cfg.Language = stringOrEmpty(v)
			case ParamCountry:
				c.cfg.Country = stringOrEmpty(v)
			case ParamMax:
				if v == nil {
					c.cfg.MaxResults = 0
				} else if n, ok := toInt(v); ok {
					c.cfg.MaxResults = n
				}
			case ParamNullable:
				c.cfg.AllowNulls = truthy(v)
			}
		}
	}
}

func WithTransport(t Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithHTTPClient не действует вместе с WithTransport
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout - таймаут клиента по умолчанию. Не действует вместе с
// WithTransport или WithHTTPClient.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

func stringOrEmpty(v any) string {
	if v == nil {
		return ""
	}
	return formatValue(v)
}
