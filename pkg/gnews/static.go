package gnews

import (
	"context"
	"fmt"
	"maps"
)

// Search - вызов без явного клиента: ключ передается в params["apikey"].
func Search(ctx context.Context, query string, params Params, opts ...Option) (Response, error) {
	c, rest, err := clientFromParams(params, opts)
	if err != nil {
		return nil, err
	}
	return c.SearchArticles(ctx, query, rest)
}

func Headlines(ctx context.Context, params Params, opts ...Option) (Response, error) {
	c, rest, err := clientFromParams(params, opts)
	if err != nil {
		return nil, err
	}
	return c.GetHeadlines(ctx, rest)
}

func clientFromParams(params Params, opts []Option) (*Client, Params, error) {
	key, _ := params[ParamAPIKey].(string)
	if key == "" {
		return nil, nil, &ConfigError{Err: fmt.Errorf("%w for static calls", ErrMissingAPIKey)}
	}

	rest := maps.Clone(params)
	delete(rest, ParamAPIKey)

	c, err := New(key, opts...)
	if err != nil {
		return nil, nil, err
	}
	return c, rest, nil
}
