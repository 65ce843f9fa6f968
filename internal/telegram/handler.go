package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"math"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/kitbuilder587/gnews-go/pkg/gnews"
)

type Handler struct {
	bot *Bot
}

func NewHandler(bot *Bot) *Handler {
	return &Handler{bot: bot}
}

const helpText = `<b>Доступные команды:</b>

/search запрос [параметры] - Поиск статей
/headlines [параметры] - Главные новости
/help - Показать эту справку

<b>Параметры</b> (ключ=значение):
• lang=fr - язык
• country=us - страна
• max=5 - количество статей
• category=technology - рубрика (для /headlines)
• sortby=publishedAt - сортировка
• from=2025-01-01T00:00:00Z, to=... - период
• in=title - где искать
• nullable=false - не отправлять пустые параметры

<b>Примеры:</b>
• /search bitcoin lang=en max=5
• /headlines category=world country=fr
• Просто текст - это поиск: <i>openai</i>`

func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	h.bot.logger.Info("received message",
		zap.Int64("chat_id", msg.Chat.ID),
		zap.Bool("is_command", msg.IsCommand()),
	)

	if !msg.IsCommand() {
		h.handleNews(ctx, msg)
		return
	}

	switch msg.Command() {
	case "start":
		h.bot.Send(msg.Chat.ID, "Привет! Я ищу новости через GNews.\n\nИспользуйте /help для просмотра доступных команд.")
	case "help":
		h.bot.Send(msg.Chat.ID, helpText)
	case "search", "s", "headlines", "top":
		h.handleNews(ctx, msg)
	default:
		h.bot.Send(msg.Chat.ID, "Неизвестная команда. Используйте /help для справки.")
	}
}

func (h *Handler) handleNews(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	cmd := ParseNewsCommand(msg.Text)
	if cmd.Kind == CommandSearch && cmd.Query == "" {
		h.bot.Send(chatID, "Укажите запрос: /search bitcoin")
		return
	}

	if !h.bot.rateLimiter.Allow(chatID) {
		retryAfter := h.bot.rateLimiter.RetryAfter(chatID)
		h.bot.logger.Warn("rate limit exceeded",
			zap.Int64("chat_id", chatID),
			zap.Duration("retry_after", retryAfter),
		)
		h.bot.RecordRateLimitHit()
		h.bot.Send(chatID, throttledMessage(retryAfter))
		return
	}

	h.bot.SendTyping(chatID)

	var (
		resp  gnews.Response
		err   error
		title string
	)
	switch cmd.Kind {
	case CommandHeadlines:
		title = headlinesTitle(cmd.Params)
		resp, err = h.bot.news.GetHeadlines(ctx, cmd.Params)
	default:
		title = searchTitle(cmd.Query)
		resp, err = h.bot.news.SearchArticles(ctx, cmd.Query, cmd.Params)
	}
	if err != nil {
		h.bot.logger.Error("news request failed",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
		h.bot.Send(chatID, mapErrorToMessage(err))
		return
	}

	for _, part := range SplitMessage(FormatArticles(title, resp), MaxMessageLength) {
		if err := h.bot.Send(chatID, part); err != nil {
			return
		}
	}
}

func throttledMessage(retryAfter time.Duration) string {
	sec := int(math.Ceil(retryAfter.Seconds()))
	if sec < 1 {
		sec = 1
	}
	return fmt.Sprintf("Слишком много запросов. Попробуйте через %d с.", sec)
}

func mapErrorToMessage(err error) string {
	var apiErr *gnews.APIError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Сервис новостей не ответил вовремя. Попробуйте позже."
	case errors.As(err, &apiErr):
		switch {
		case !apiErr.HasStatus():
			return "Сервис новостей недоступен. Попробуйте позже."
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return "Превышен лимит запросов к GNews. Попробуйте позже."
		case apiErr.StatusCode == http.StatusUnauthorized, apiErr.StatusCode == http.StatusForbidden:
			return "Сервис новостей отклонил ключ API."
		case apiErr.StatusCode == http.StatusBadRequest:
			return fmt.Sprintf("Некорректные параметры запроса: %s", html.EscapeString(apiErr.Message))
		default:
			return fmt.Sprintf("Ошибка сервиса новостей: %s", html.EscapeString(apiErr.Message))
		}
	default:
		return "Произошла ошибка. Попробуйте позже."
	}
}
