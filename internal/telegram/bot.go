package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kitbuilder587/gnews-go/internal/metrics"
	"github.com/kitbuilder587/gnews-go/internal/ratelimit"
	"github.com/kitbuilder587/gnews-go/pkg/gnews"
)

type BotConfig struct {
	Token             string
	Debug             bool
	RequestsPerMinute int
}

// sender - то, что нужно боту от tgbotapi.BotAPI для ответов
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api         *tgbotapi.BotAPI
	out         sender
	news        gnews.API
	logger      *zap.Logger
	metrics     *metrics.Metrics
	handler     *Handler
	rateLimiter *ratelimit.Limiter
	wg          sync.WaitGroup
}

func New(cfg BotConfig, news gnews.API, logger *zap.Logger, m *metrics.Metrics) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	api.Debug = cfg.Debug

	bot := &Bot{
		api:     api,
		out:     api,
		news:    news,
		logger:  logger,
		metrics: m,
		rateLimiter: ratelimit.New(ratelimit.Config{
			RequestsPerMinute: cfg.RequestsPerMinute,
		}),
	}
	bot.handler = NewHandler(bot)

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
	)

	return bot, nil
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("bot started, waiting for updates")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("bot stopping, waiting for handlers to finish")
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			b.rateLimiter.Stop()
			b.logger.Info("all handlers finished")
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			b.wg.Add(1)
			go func(upd tgbotapi.Update) {
				defer b.wg.Done()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	startTime := time.Now()
	updateType := updateTypeOf(update.Message)

	if b.metrics != nil {
		b.metrics.IncUpdatesInFlight()
		defer b.metrics.DecUpdatesInFlight()
	}

	defer func() {
		if r := recover(); r != nil {
			chatID := int64(0)
			if update.Message != nil && update.Message.Chat != nil {
				chatID = update.Message.Chat.ID
			}
			b.logger.Error("panic in update handler",
				zap.Any("panic", r),
				zap.Int64("chat_id", chatID),
			)
			if b.metrics != nil {
				b.metrics.RecordUpdate(updateType, "panic", time.Since(startTime))
			}
		}
	}()

	b.handler.HandleMessage(ctx, update.Message)

	if b.metrics != nil {
		b.metrics.RecordUpdate(updateType, "processed", time.Since(startTime))
	}
}

func updateTypeOf(msg *tgbotapi.Message) string {
	if msg != nil && msg.IsCommand() {
		return "command"
	}
	return "text"
}

func (b *Bot) Send(chatID int64, text string) error {
	if b.out == nil {
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := b.out.Send(msg)
	if err != nil {
		b.logger.Warn("send message failed",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
	return err
}

func (b *Bot) SendTyping(chatID int64) {
	if b.out == nil {
		return
	}
	b.out.Send(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
}

func (b *Bot) RecordRateLimitHit() {
	if b.metrics != nil {
		b.metrics.RecordRateLimitHit()
	}
}
