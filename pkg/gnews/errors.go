package gnews

import (
	"errors"
	"fmt"
)

var ErrMissingAPIKey = errors.New("api key is required")

// ConfigError - ошибка использования: клиент нельзя собрать или вызвать без ключа.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return "gnews: config: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// APIError возвращается при любом неуспешном вызове API.
// StatusCode == 0 значит что ответа не было (ошибка транспорта или сети).
type APIError struct {
	Message    string
	StatusCode int
	Endpoint   string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gnews: %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gnews: %s: %s", e.Endpoint, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func (e *APIError) HasStatus() bool {
	return e.StatusCode != 0
}
