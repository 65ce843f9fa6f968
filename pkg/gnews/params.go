package gnews

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Params - параметры запроса. Ключи совпадают с именами query-параметров GNews.
// nil-значение считается "не передано".
type Params map[string]any

const (
	ParamQuery    = "q"
	ParamLang     = "lang"
	ParamCountry  = "country"
	ParamMax      = "max"
	ParamAPIKey   = "apikey"
	ParamCategory = "category"
	ParamSortBy   = "sortby"
	ParamFrom     = "from"
	ParamTo       = "to"
	ParamIn       = "in"
	ParamNullable = "nullable"
	ParamExpand   = "expand"
	ParamTopic    = "topic"
	ParamImage    = "image"
)

// передаются как есть, только если вызывающий их указал
var passThroughKeys = []string{
	ParamCategory, ParamSortBy, ParamFrom, ParamTo, ParamIn,
	ParamNullable, ParamExpand, ParamTopic, ParamImage,
}

var keyAliases = map[string]string{
	ParamSortBy: "sortBy",
}

const redactedValue = "REDACTED"

// NullEncoding определяет, как null-параметры попадают в query string.
type NullEncoding int

const (
	// NullOmit - параметр с null не отправляется
	NullOmit NullEncoding = iota
	// NullEmpty - параметр отправляется пустым: country=
	NullEmpty
)

func ParseNullEncoding(s string) (NullEncoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "omit":
		return NullOmit, nil
	case "empty":
		return NullEmpty, nil
	default:
		return NullOmit, fmt.Errorf("unknown null encoding %q", s)
	}
}

func (e NullEncoding) String() string {
	if e == NullEmpty {
		return "empty"
	}
	return "omit"
}

func (p Params) lookup(key string) (any, bool) {
	if v, ok := p[key]; ok && v != nil {
		return v, true
	}
	if alias, ok := keyAliases[key]; ok {
		if v, ok := p[alias]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (p Params) valueOr(key string, def any) any {
	if v, ok := p.lookup(key); ok {
		return v
	}
	return def
}

// MergeParams строит итоговые параметры запроса из дефолтов клиента и
// параметров вызова. Чистая функция: одинаковый вход - одинаковый выход.
func (c *Client) MergeParams(params Params) Params {
	out := Params{
		ParamLang:    params.valueOr(ParamLang, c.cfg.defaultLang()),
		ParamCountry: params.valueOr(ParamCountry, c.cfg.defaultCountry()),
		ParamMax:     params.valueOr(ParamMax, c.cfg.defaultMax()),
		ParamAPIKey:  c.apiKey,
	}

	for _, key := range passThroughKeys {
		if v, ok := params.lookup(key); ok {
			out[key] = v
		}
	}

	nullable := c.cfg.AllowNulls
	if v, ok := params.lookup(ParamNullable); ok {
		nullable = truthy(v)
	}
	if !nullable {
		for k, v := range out {
			if v == nil {
				delete(out, k)
			}
		}
	}

	return out
}

// Values кодирует параметры в query string.
func (p Params) Values(enc NullEncoding) url.Values {
	values := make(url.Values, len(p))
	for key, v := range p {
		if v == nil {
			if enc == NullEmpty {
				values.Set(key, "")
			}
			continue
		}
		values.Set(key, formatValue(v))
	}
	return values
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case json.Number:
		return t.String()
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case []string:
		// in, nullable, expand у GNews - списки через запятую
		return strings.Join(t, ",")
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// truthy повторяет правила API для флагов: "", "0", "false" и 0 - ложь.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s != "" && s != "0" && s != "false"
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	default:
		return true
	}
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case int32:
		return int(t), true
	case float64:
		return int(t), true
	case json.Number:
		n, err := t.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	default:
		return 0, false
	}
}

func redactQuery(q url.Values) url.Values {
	if !q.Has(ParamAPIKey) {
		return q
	}
	out := maps.Clone(q)
	out.Set(ParamAPIKey, redactedValue)
	return out
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = redactQuery(u.Query()).Encode()
	return u.String()
}
