package gnews

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithTransport(&fakeTransport{status: 200, body: `{}`})}, opts...)
	c, err := New("test-key", opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestMergeParams_Defaults(t *testing.T) {
	c := newTestClient(t)

	got := c.MergeParams(nil)
	want := Params{
		"lang":    "en",
		"country": nil,
		"max":     10,
		"apikey":  "test-key",
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeParams() = %v, want %v", got, want)
	}
}

func TestMergeParams_Overrides(t *testing.T) {
	c := newTestClient(t)

	got := c.MergeParams(Params{"lang": "fr", "country": "ca", "max": 3})

	if got["lang"] != "fr" {
		t.Errorf("lang = %v, want fr", got["lang"])
	}
	if got["country"] != "ca" {
		t.Errorf("country = %v, want ca", got["country"])
	}
	if got["max"] != 3 {
		t.Errorf("max = %v, want 3", got["max"])
	}
	if got["apikey"] != "test-key" {
		t.Errorf("apikey = %v, want test-key", got["apikey"])
	}
}

func TestMergeParams_NilOverrideFallsBackToDefault(t *testing.T) {
	c := newTestClient(t, WithLanguage("de"))

	got := c.MergeParams(Params{"lang": nil})
	if got["lang"] != "de" {
		t.Errorf("lang = %v, want de", got["lang"])
	}
}

func TestMergeParams_Deterministic(t *testing.T) {
	c := newTestClient(t, WithCountry("us"))
	params := Params{"lang": "fr", "category": "world", "nullable": true}

	first := c.MergeParams(params)
	for i := 0; i < 10; i++ {
		if got := c.MergeParams(params); !reflect.DeepEqual(got, first) {
			t.Fatalf("MergeParams() run %d = %v, want %v", i, got, first)
		}
	}
}

func TestMergeParams_DoesNotMutateInput(t *testing.T) {
	c := newTestClient(t)
	params := Params{"lang": "fr", "nullable": false}

	c.MergeParams(params)

	want := Params{"lang": "fr", "nullable": false}
	if !reflect.DeepEqual(params, want) {
		t.Errorf("params mutated: %v", params)
	}
}

func TestMergeParams_PassThrough(t *testing.T) {
	c := newTestClient(t)

	t.Run("absent keys stay absent", func(t *testing.T) {
		got := c.MergeParams(Params{})
		for _, key := range passThroughKeys {
			if _, ok := got[key]; ok {
				t.Errorf("key %q should be absent, got %v", key, got[key])
			}
		}
	})

	t.Run("supplied keys forwarded", func(t *testing.T) {
		params := Params{
			"category": "technology",
			"sortby":   "publishedAt",
			"from":     "2025-01-01T00:00:00Z",
			"to":       "2025-01-02T00:00:00Z",
			"in":       "title",
			"nullable": "description",
			"expand":   "content",
			"topic":    "business",
			"image":    "required",
		}
		got := c.MergeParams(params)
		for key, want := range params {
			if got[key] != want {
				t.Errorf("%s = %v, want %v", key, got[key], want)
			}
		}
	})

	t.Run("nil pass-through not forwarded", func(t *testing.T) {
		got := c.MergeParams(Params{"category": nil})
		if _, ok := got["category"]; ok {
			t.Error("nil category should not be forwarded")
		}
	})

	t.Run("unknown keys ignored", func(t *testing.T) {
		got := c.MergeParams(Params{"foo": "bar", "page": 2})
		if _, ok := got["foo"]; ok {
			t.Error("unknown key foo forwarded")
		}
		if _, ok := got["page"]; ok {
			t.Error("unknown key page forwarded")
		}
	})

	t.Run("sortBy alias", func(t *testing.T) {
		got := c.MergeParams(Params{"sortBy": "relevance"})
		if got["sortby"] != "relevance" {
			t.Errorf("sortby = %v, want relevance", got["sortby"])
		}
		if _, ok := got["sortBy"]; ok {
			t.Error("alias sortBy should not be forwarded as is")
		}
	})

	t.Run("apikey from params ignored", func(t *testing.T) {
		got := c.MergeParams(Params{"apikey": "other"})
		if got["apikey"] != "test-key" {
			t.Errorf("apikey = %v, want test-key", got["apikey"])
		}
	})
}

func TestMergeParams_Nullable(t *testing.T) {
	tests := []struct {
		name        string
		opts        []Option
		params      Params
		wantCountry bool
	}{
		{
			name:        "allow nulls default keeps null country",
			params:      Params{},
			wantCountry: true,
		},
		{
			name:        "configured allowNulls false drops null country",
			opts:        []Option{WithAllowNulls(false)},
			params:      Params{},
			wantCountry: false,
		},
		{
			name:        "call-site nullable false drops null country",
			params:      Params{"nullable": false},
			wantCountry: false,
		},
		{
			name:        "call-site nullable true overrides config",
			opts:        []Option{WithAllowNulls(false)},
			params:      Params{"nullable": true},
			wantCountry: true,
		},
		{
			name:        "string false is falsy",
			params:      Params{"nullable": "false"},
			wantCountry: false,
		},
		{
			name:        "uppercase FALSE is falsy",
			params:      Params{"nullable": " FALSE "},
			wantCountry: false,
		},
		{
			name:        "string no stays truthy",
			opts:        []Option{WithAllowNulls(false)},
			params:      Params{"nullable": "no"},
			wantCountry: true,
		},
		{
			name:        "zero is falsy",
			params:      Params{"nullable": 0},
			wantCountry: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.opts...)
			got := c.MergeParams(tt.params)

			v, ok := got["country"]
			if ok != tt.wantCountry {
				t.Fatalf("country present = %v, want %v (params %v)", ok, tt.wantCountry, got)
			}
			if ok && v != nil {
				t.Errorf("country = %v, want nil", v)
			}
			if !tt.wantCountry {
				for k, v := range got {
					if v == nil {
						t.Errorf("key %q has nil value with nullable=false", k)
					}
				}
			}
		})
	}
}

func TestMergeParams_NullableFalseKeepsSetValues(t *testing.T) {
	c := newTestClient(t, WithAllowNulls(false), WithCountry("fr"))

	got := c.MergeParams(nil)
	if got["country"] != "fr" {
		t.Errorf("country = %v, want fr", got["country"])
	}
}

func TestWithDefaults(t *testing.T) {
	c := newTestClient(t, WithDefaults(map[string]any{
		"lang":     "es",
		"country":  "mx",
		"max":      json.Number("25"),
		"nullable": false,
		"timeout":  99,
		"baseUrl":  "https://example.com",
	}))

	cfg := c.Config()
	want := Config{Language: "es", Country: "mx", MaxResults: 25, AllowNulls: false}
	if cfg != want {
		t.Errorf("Config() = %+v, want %+v", cfg, want)
	}
}

func TestWithDefaults_NullCountry(t *testing.T) {
	c := newTestClient(t, WithCountry("us"), WithDefaults(map[string]any{"country": nil}))

	if got := c.MergeParams(nil)["country"]; got != nil {
		t.Errorf("country = %v, want nil", got)
	}
}

func TestParams_Values(t *testing.T) {
	params := Params{
		"lang":    "en",
		"country": nil,
		"max":     10,
	}

	t.Run("omit", func(t *testing.T) {
		v := params.Values(NullOmit)
		if v.Has("country") {
			t.Errorf("country should be omitted, got %q", v.Encode())
		}
		if v.Get("max") != "10" {
			t.Errorf("max = %q, want 10", v.Get("max"))
		}
	})

	t.Run("empty", func(t *testing.T) {
		v := params.Values(NullEmpty)
		if !v.Has("country") || v.Get("country") != "" {
			t.Errorf("country should be sent empty, got %q", v.Encode())
		}
		if v.Encode() != "country=&lang=en&max=10" {
			t.Errorf("Encode() = %q", v.Encode())
		}
	})
}

func TestFormatValue(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 30, 0, 0, time.FixedZone("X", 3*3600))

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "abc", "abc"},
		{"bool true", true, "true"},
		{"bool false", false, "false"},
		{"int", 42, "42"},
		{"int64", int64(7), "7"},
		{"float", 1.5, "1.5"},
		{"json number", json.Number("10"), "10"},
		{"time in utc", ts, "2025-03-01T09:30:00Z"},
		{"string list", []string{"title", "description"}, "title,description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatValue(tt.in); got != tt.want {
				t.Errorf("formatValue(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseNullEncoding(t *testing.T) {
	tests := []struct {
		in      string
		want    NullEncoding
		wantErr bool
	}{
		{"", NullOmit, false},
		{"omit", NullOmit, false},
		{"EMPTY", NullEmpty, false},
		{"drop", NullOmit, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNullEncoding(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseNullEncoding(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseNullEncoding(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
