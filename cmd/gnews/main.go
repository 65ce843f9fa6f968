package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kitbuilder587/gnews-go/internal/config"
	"github.com/kitbuilder587/gnews-go/pkg/gnews"
)

const usage = `usage:
  gnews search [flags] query [query...]
  gnews headlines [flags]

flags:
  -lang -country -max -nullable -sortby -from -to -in -expand -image
  -category -topic (headlines)`

// сколько запросов search выполняется одновременно
const maxParallelQueries = 4

var errUsage = errors.New(usage)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "gnews:", err)
		os.Exit(1)
	}
}

// run разбирает аргументы и печатает ответ GNews в out. opts добавляются
// к опциям клиента из конфига.
func run(ctx context.Context, args []string, out io.Writer, opts ...gnews.Option) error {
	if len(args) == 0 {
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		fmt.Fprintln(out, usage)
		return nil
	}
	if cmd != "search" && cmd != "headlines" {
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}

	fs, flags := newParamFlags(cmd)
	if err := fs.Parse(rest); err != nil {
		return err
	}
	params, err := flags.params(fs)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	clientOpts := append(cfg.GNews.ClientOptions(), gnews.WithLogger(logger))
	client, err := gnews.New(cfg.GNews.APIKey, append(clientOpts, opts...)...)
	if err != nil {
		return err
	}

	var result any
	switch cmd {
	case "headlines":
		result, err = client.GetHeadlines(ctx, params)
	default:
		result, err = search(ctx, client, logger, fs.Args(), params)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// search выполняет запросы параллельно. Один запрос - печатаем ответ как есть,
// несколько - объект {запрос: ответ}.
func search(ctx context.Context, client gnews.API, logger *zap.Logger, queries []string, params gnews.Params) (any, error) {
	queries = dedupe(queries)
	if len(queries) == 0 {
		return nil, fmt.Errorf("search: query is required\n%s", usage)
	}

	results := make([]gnews.Response, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelQueries)
	for i, q := range queries {
		g.Go(func() error {
			resp, err := client.SearchArticles(gctx, q, params)
			if err != nil {
				return fmt.Errorf("search %q: %w", q, err)
			}
			logger.Debug("search done",
				zap.String("query", q),
				zap.Int("articles", len(resp.Articles())),
			)
			results[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(queries) == 1 {
		return results[0], nil
	}
	byQuery := make(map[string]gnews.Response, len(queries))
	for i, q := range queries {
		byQuery[q] = results[i]
	}
	return byQuery, nil
}

// одинаковые запросы отправляем один раз, порядок сохраняется
func dedupe(queries []string) []string {
	seen := make(map[string]struct{}, len(queries))
	out := queries[:0:0]
	for _, q := range queries {
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}

type paramFlags map[string]*string

func newParamFlags(cmd string) (*flag.FlagSet, paramFlags) {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	names := []string{
		gnews.ParamLang, gnews.ParamCountry, gnews.ParamMax, gnews.ParamNullable,
		gnews.ParamSortBy, gnews.ParamFrom, gnews.ParamTo, gnews.ParamIn,
		gnews.ParamExpand, gnews.ParamImage,
	}
	if cmd == "headlines" {
		names = append(names, gnews.ParamCategory, gnews.ParamTopic)
	}

	flags := make(paramFlags, len(names))
	for _, name := range names {
		flags[name] = fs.String(name, "", name+" parameter")
	}
	return fs, flags
}

// params берет только флаги, заданные явно: остальные должны прийти из конфига
func (p paramFlags) params(fs *flag.FlagSet) (gnews.Params, error) {
	params := gnews.Params{}
	var err error

	fs.Visit(func(f *flag.Flag) {
		value := strings.TrimSpace(*p[f.Name])
		switch f.Name {
		case gnews.ParamMax:
			n, convErr := strconv.Atoi(value)
			if convErr != nil {
				err = fmt.Errorf("invalid -max %q: %w", value, convErr)
				return
			}
			params[f.Name] = n
		case gnews.ParamNullable:
			b, convErr := strconv.ParseBool(value)
			if convErr != nil {
				err = fmt.Errorf("invalid -nullable %q: %w", value, convErr)
				return
			}
			params[f.Name] = b
		default:
			params[f.Name] = value
		}
	})

	return params, err
}
