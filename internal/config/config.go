package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kitbuilder587/gnews-go/pkg/gnews"
)

var (
	ErrMissingAPIKey       = errors.New("GNEWS_API_KEY is required")
	ErrMissingToken        = errors.New("TELEGRAM_BOT_TOKEN is required")
	ErrInvalidNullEncoding = errors.New("GNEWS_NULL_ENCODING must be omit or empty")
	ErrInvalidMaxResults   = errors.New("GNEWS_MAX must be non-negative")
)

type Config struct {
	GNews     GNewsConfig     `yaml:"gnews"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type GNewsConfig struct {
	APIKey       string        `yaml:"api_key"`
	Language     string        `yaml:"lang"`
	Country      string        `yaml:"country"`
	MaxResults   int           `yaml:"max"`
	AllowNulls   bool          `yaml:"allow_nulls"`
	NullEncoding string        `yaml:"null_encoding"`
	Timeout      time.Duration `yaml:"timeout"`
}

type TelegramConfig struct {
	Token string `yaml:"token"`
	Debug bool   `yaml:"debug"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

func Default() *Config {
	return &Config{
		GNews: GNewsConfig{
			Language:     "en",
			MaxResults:   10,
			AllowNulls:   true,
			NullEncoding: "omit",
			Timeout:      30 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 10,
		},
	}
}

// Load: дефолты -> YAML из GNEWS_CONFIG_FILE (если задан) -> переменные окружения.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("GNEWS_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.GNews.APIKey = getEnvOrDefault("GNEWS_API_KEY", c.GNews.APIKey)
	c.GNews.Language = getEnvOrDefault("GNEWS_LANG", c.GNews.Language)
	c.GNews.Country = getEnvOrDefault("GNEWS_COUNTRY", c.GNews.Country)
	c.GNews.MaxResults = getEnvIntOrDefault("GNEWS_MAX", c.GNews.MaxResults)
	c.GNews.AllowNulls = getEnvBoolOrDefault("GNEWS_ALLOW_NULLS", c.GNews.AllowNulls)
	c.GNews.NullEncoding = getEnvOrDefault("GNEWS_NULL_ENCODING", c.GNews.NullEncoding)
	if sec := getEnvIntOrDefault("GNEWS_TIMEOUT_SEC", 0); sec > 0 {
		c.GNews.Timeout = time.Duration(sec) * time.Second
	}

	c.Telegram.Token = getEnvOrDefault("TELEGRAM_BOT_TOKEN", c.Telegram.Token)
	c.Telegram.Debug = getEnvBoolOrDefault("TELEGRAM_DEBUG", c.Telegram.Debug)

	c.Log.Level = getEnvOrDefault("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnvOrDefault("LOG_FORMAT", c.Log.Format)
	c.Metrics.Addr = getEnvOrDefault("METRICS_ADDR", c.Metrics.Addr)
	c.RateLimit.RequestsPerMinute = getEnvIntOrDefault("RATE_LIMIT_PER_MINUTE", c.RateLimit.RequestsPerMinute)
}

func (c *Config) Validate() error {
	if c.GNews.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.GNews.MaxResults < 0 {
		return ErrInvalidMaxResults
	}
	if _, err := gnews.ParseNullEncoding(c.GNews.NullEncoding); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidNullEncoding, err)
	}
	return nil
}

// ValidateBot - то же, что Validate, плюс токен телеграма
func (c *Config) ValidateBot() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Telegram.Token == "" {
		return ErrMissingToken
	}
	return nil
}

// ClientOptions переводит конфиг в опции клиента. Ключ передается отдельно в gnews.New.
func (g GNewsConfig) ClientOptions() []gnews.Option {
	enc, _ := gnews.ParseNullEncoding(g.NullEncoding)
	return []gnews.Option{
		gnews.WithConfig(gnews.Config{
			Language:     g.Language,
			Country:      g.Country,
			MaxResults:   g.MaxResults,
			AllowNulls:   g.AllowNulls,
			NullEncoding: enc,
		}),
		gnews.WithTimeout(g.Timeout),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
