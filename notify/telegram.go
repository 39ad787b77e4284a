package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// TELEGRAM SENDER - Delivery via a Telegram bot
// =============================================================================

// TelegramSender delivers notifications as Telegram messages. Chats
// maps engine user ids to Telegram chat ids; recipients without a
// mapping are skipped (logged, not failed), since a missing mapping is
// permanent and must not wedge the outbox.
type TelegramSender struct {
	bot    *tgbotapi.BotAPI
	chats  map[vacation.UserID]int64
	logger *logrus.Logger
}

func NewTelegramSender(token string, chats map[vacation.UserID]int64, logger *logrus.Logger) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &TelegramSender{bot: bot, chats: chats, logger: logger}, nil
}

func (s *TelegramSender) Send(_ context.Context, n vacation.Notification) error {
	chatID, ok := s.chats[n.RecipientID]
	if !ok {
		s.logger.WithField("recipient", n.RecipientID).
			Warn("no telegram chat mapping for recipient, skipping")
		return nil
	}

	msg := tgbotapi.NewMessage(chatID, Message(n))
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message to chat %d: %w", chatID, err)
	}
	return nil
}
