package publisher

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"smm-planner/internal/domain"
	"smm-planner/internal/infra/metrics"
)

type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram публикует посты в канал Telegram.
type Telegram struct {
	bot       botSender
	channelID int64
	log       zerolog.Logger
}

var _ domain.Publisher = (*Telegram)(nil)

// NewTelegram создаёт издателя для канала Telegram.
func NewTelegram(bot botSender, channelID int64, log zerolog.Logger) *Telegram {
	return &Telegram{bot: bot, channelID: channelID, log: log}
}

// Publish отправляет текст поста в канал. Длинный текст уходит несколькими
// сообщениями; ссылка в результате ведёт на первое из них.
func (t *Telegram) Publish(post domain.Post, platform string) (domain.PublishResult, error) {
	parts := SplitMessage(post.Text)
	if len(parts) == 0 {
		return domain.PublishResult{}, errors.New("пустой текст поста")
	}

	var first tgbotapi.Message
	for i, part := range parts {
		msg := tgbotapi.NewMessage(t.channelID, part)
		start := time.Now()
		sent, err := t.bot.Send(msg)
		metrics.ObserveNetworkRequest("telegram", "send_message", strconv.FormatInt(t.channelID, 10), start, err)
		if err != nil {
			return domain.PublishResult{}, fmt.Errorf("отправка в telegram: %w", err)
		}
		if i == 0 {
			first = sent
		}
	}

	return domain.PublishResult{OK: true, URL: messageURL(first)}, nil
}

func messageURL(msg tgbotapi.Message) string {
	if msg.Chat == nil || msg.Chat.UserName == "" {
		return ""
	}
	return fmt.Sprintf("https://t.me/%s/%d", msg.Chat.UserName, msg.MessageID)
}
