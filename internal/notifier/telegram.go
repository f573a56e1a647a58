package notifier

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/cryptovalleyjobs/jobfeed/internal/model"
)

// Ensure TelegramNotifier implements model.Notifier.
var _ model.Notifier = (*TelegramNotifier)(nil)

// TelegramNotifier sends the run summary to a Telegram chat through a bot.
// The bot is set up on the first Notify, since the Bot API client checks the
// token over the network when it is created.
type TelegramNotifier struct {
	token      string
	endpoint   string
	chatID     int64
	httpClient *http.Client
	logger     *slog.Logger

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

// NewTelegramNotifier creates a Telegram notifier. endpoint is a Bot API URL
// format with placeholders for token and method; empty uses api.telegram.org.
func NewTelegramNotifier(token, endpoint string, chatID int64, httpClient *http.Client, logger *slog.Logger) *TelegramNotifier {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	return &TelegramNotifier{
		token:      token,
		endpoint:   endpoint,
		chatID:     chatID,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify sends one HTML message. The Bot API client has no context support;
// the http client's timeout bounds the call.
func (t *TelegramNotifier) Notify(_ context.Context, s model.RunSummary) error {
	bot, err := t.botAPI()
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, telegramText(s))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	t.logger.Info("telegram summary sent", "run_id", s.RunID)
	return nil
}

// botAPI returns the bot, creating it on first use. A failed setup is tried
// again on the next Notify.
func (t *TelegramNotifier) botAPI() (*tgbotapi.BotAPI, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bot != nil {
		return t.bot, nil
	}
	bot, err := tgbotapi.NewBotAPIWithClient(t.token, t.endpoint, t.httpClient)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	t.bot = bot
	return bot, nil
}

func telegramText(s model.RunSummary) string {
	var b strings.Builder
	b.WriteString("<b>" + html.EscapeString(headline(s)) + "</b>\n")
	b.WriteString(html.EscapeString(counts(s)))
	if failed := failures(s); len(failed) > 0 {
		b.WriteString("\n\n<b>Failed sources</b>\n")
		b.WriteString(html.EscapeString(bulletList(failed)))
	}
	if s.RunID != "" {
		b.WriteString("\n\n<code>" + html.EscapeString(s.RunID) + "</code>")
	}
	return b.String()
}
