package telegram

import (
	"strconv"
	"strings"

	"github.com/kitbuilder587/gnews-go/pkg/gnews"
)

type CommandKind int

const (
	CommandSearch CommandKind = iota
	CommandHeadlines
)

type NewsCommand struct {
	Kind   CommandKind
	Query  string
	Params gnews.Params
}

// ключи, которые можно писать в сообщении как key=value
var optionKeys = map[string]string{
	"lang":     gnews.ParamLang,
	"country":  gnews.ParamCountry,
	"max":      gnews.ParamMax,
	"category": gnews.ParamCategory,
	"sortby":   gnews.ParamSortBy,
	"from":     gnews.ParamFrom,
	"to":       gnews.ParamTo,
	"in":       gnews.ParamIn,
	"nullable": gnews.ParamNullable,
	"expand":   gnews.ParamExpand,
	"topic":    gnews.ParamTopic,
	"image":    gnews.ParamImage,
}

// /search bitcoin lang=fr max=5 -> поиск "bitcoin" с параметрами
// /headlines category=world    -> топ заголовков
// обычный текст                -> поиск
func ParseNewsCommand(text string) NewsCommand {
	cmd := NewsCommand{Kind: CommandSearch, Params: gnews.Params{}}

	fields := strings.Fields(text)
	if len(fields) == 0 {
		return cmd
	}

	if strings.HasPrefix(fields[0], "/") {
		name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
		switch name {
		case "/headlines", "/top":
			cmd.Kind = CommandHeadlines
			fields = fields[1:]
		case "/search", "/s":
			fields = fields[1:]
		}
	}

	var words []string
	for _, f := range fields {
		key, value, ok := parseOption(f)
		if !ok {
			words = append(words, f)
			continue
		}
		cmd.Params[key] = value
	}

	cmd.Query = strings.Join(words, " ")
	return cmd
}

func parseOption(field string) (string, any, bool) {
	k, v, ok := strings.Cut(field, "=")
	if !ok || v == "" {
		return "", nil, false
	}
	key, ok := optionKeys[strings.ToLower(k)]
	if !ok {
		return "", nil, false
	}

	switch key {
	case gnews.ParamMax:
		if n, err := strconv.Atoi(v); err == nil {
			return key, n, true
		}
	case gnews.ParamNullable:
		if b, err := strconv.ParseBool(v); err == nil {
			return key, b, true
		}
	}
	return key, v, true
}
