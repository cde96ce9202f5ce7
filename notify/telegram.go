// Package notify delivers push notifications to users over Telegram.
// In-app notifications are persisted by the store regardless; Telegram is
// the optional extra channel behind the alert "notify push" flag.
package notify

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram sends messages through a bot. A nil *Telegram is a valid no-op
// sender, so callers never need to branch on configuration.
type Telegram struct {
	bot *tgbotapi.BotAPI
}

// NewTelegram connects the bot. An empty token returns nil: pushes are
// silently disabled.
func NewTelegram(token string) (*Telegram, error) {
	if token == "" {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("cannot connect telegram bot: %w", err)
	}
	return &Telegram{bot: bot}, nil
}

// Send delivers a text message to a chat. Unknown chat (0) and nil sender
// are no-ops.
func (t *Telegram) Send(chatID int64, text string) error {
	if t == nil || chatID == 0 {
		return nil
	}
	_, err := t.bot.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return fmt.Errorf("cannot send telegram message to %d: %w", chatID, err)
	}
	return nil
}

// ReplyWithChatID consumes the bot's update stream and answers every incoming
// message with the chat id, so users can paste it into their account settings
// and start receiving pushes. Blocks until the update channel closes; a nil
// receiver returns immediately.
func (t *Telegram) ReplyWithChatID() {
	if t == nil {
		return
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	for update := range t.bot.GetUpdatesChan(u) {
		if update.Message == nil {
			continue
		}
		chatID := update.Message.Chat.ID
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
			"Din chat-id er %d. Lim den inn under kontoinnstillingene på Aksjeradar for å motta prisvarsler her.", chatID))
		msg.ReplyToMessageID = update.Message.MessageID
		if _, err := t.bot.Send(msg); err != nil {
			log.Printf("cannot answer telegram chat %d: %v", chatID, err)
		}
	}
}
