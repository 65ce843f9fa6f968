package telegram

import (
	"errors"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kitbuilder587/gnews-go/internal/metrics"
	"github.com/kitbuilder587/gnews-go/internal/ratelimit"
	"github.com/kitbuilder587/gnews-go/pkg/gnews"
	"github.com/kitbuilder587/gnews-go/pkg/gnews/mock"
)

type sentMessage struct {
	ChatID int64
	Text   string
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []sentMessage
	actions int
	err     error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		f.sent = append(f.sent, sentMessage{ChatID: m.ChatID, Text: m.Text})
	case tgbotapi.ChatActionConfig:
		f.actions++
	}
	return tgbotapi.Message{}, f.err
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.Text
	}
	return out
}

func createTestBot(news gnews.API, rpm int) (*Bot, *fakeSender) {
	out := &fakeSender{}
	bot := &Bot{
		api:         nil,
		out:         out,
		news:        news,
		logger:      zap.NewNop(),
		rateLimiter: ratelimit.New(ratelimit.Config{RequestsPerMinute: rpm}),
	}
	bot.handler = NewHandler(bot)
	return bot, out
}

func TestBot_SendWithoutAPI(t *testing.T) {
	bot := &Bot{logger: zap.NewNop()}

	if err := bot.Send(1, "hello"); err != nil {
		t.Errorf("Send() error = %v", err)
	}
	bot.SendTyping(1)
}

func TestBot_SendUsesHTML(t *testing.T) {
	bot, out := createTestBot(mock.New(), 10)
	defer bot.rateLimiter.Stop()

	if err := bot.Send(42, "<b>hi</b>"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(out.sent) != 1 || out.sent[0].ChatID != 42 || out.sent[0].Text != "<b>hi</b>" {
		t.Errorf("sent = %+v", out.sent)
	}
}

func TestBot_SendError(t *testing.T) {
	bot, out := createTestBot(mock.New(), 10)
	defer bot.rateLimiter.Stop()
	out.err = errors.New("forbidden")

	if err := bot.Send(1, "x"); err == nil {
		t.Error("Send() expected error")
	}
}

func TestBot_HandleUpdateRecordsMetrics(t *testing.T) {
	bot, _ := createTestBot(mock.New().WithArticles("A"), 10)
	defer bot.rateLimiter.Stop()
	reg := prometheus.NewRegistry()
	bot.metrics = metrics.NewWithRegistry(reg, reg)

	bot.handleUpdate(t.Context(), tgbotapi.Update{Message: createTestMessage(1, "/search go")})
	bot.handleUpdate(t.Context(), tgbotapi.Update{Message: createTestMessage(1, "golang")})

	if got := testutil.ToFloat64(bot.metrics.BotUpdatesTotal.WithLabelValues("command", "processed")); got != 1 {
		t.Errorf("command updates = %v, want 1", got)
	}
	if got := testutil.ToFloat64(bot.metrics.BotUpdatesTotal.WithLabelValues("text", "processed")); got != 1 {
		t.Errorf("text updates = %v, want 1", got)
	}
	if got := testutil.ToFloat64(bot.metrics.BotUpdatesInFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
}

func TestBot_HandleUpdateRecoversPanic(t *testing.T) {
	bot, _ := createTestBot(nil, 10)
	defer bot.rateLimiter.Stop()
	reg := prometheus.NewRegistry()
	bot.metrics = metrics.NewWithRegistry(reg, reg)

	// news == nil -> паника внутри обработчика
	bot.handleUpdate(t.Context(), tgbotapi.Update{Message: createTestMessage(1, "golang")})

	if got := testutil.ToFloat64(bot.metrics.BotUpdatesTotal.WithLabelValues("text", "panic")); got != 1 {
		t.Errorf("panic updates = %v, want 1", got)
	}
}
