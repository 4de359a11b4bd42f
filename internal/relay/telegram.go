package relay

import (
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sendTimeout bounds one outbound sendMessage call. The handler awaits
// the call, so this is also the relay's worst-case added latency.
const sendTimeout = 10 * time.Second

// Notifier delivers one formatted notification.
type Notifier interface {
	Notify(text string) error
}

// TelegramSender posts HTML-formatted messages to a bot chat.
type TelegramSender struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramSender builds a sender for the Telegram Bot API. The
// client is constructed directly so startup never performs a network
// round trip against api.telegram.org.
func NewTelegramSender(token string, chatID int64) *TelegramSender {
	return newTelegramSender(token, chatID, tgbotapi.APIEndpoint, &http.Client{Timeout: sendTimeout})
}

func newTelegramSender(token string, chatID int64, endpoint string, client *http.Client) *TelegramSender {
	bot := &tgbotapi.BotAPI{
		Token:  token,
		Client: client,
		Buffer: 100,
	}
	bot.SetAPIEndpoint(endpoint)
	return &TelegramSender{bot: bot, chatID: chatID}
}

func (s *TelegramSender) Notify(text string) error {
	msg := tgbotapi.NewMessage(s.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := s.bot.Send(msg)
	return err
}
