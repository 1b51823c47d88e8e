package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"mainford/internal/core/domain"
	"mainford/internal/core/ports"
)

// tgNotifier implements ports.Notifier by posting to the staff chat.
type tgNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	log    zerolog.Logger
}

var _ ports.Notifier = (*tgNotifier)(nil)

// NewNotifier creates a Telegram-backed staff notifier.
func NewNotifier(botToken string, chatID int64, baseLogger *zerolog.Logger) (ports.Notifier, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("could not create telegram bot: %w", err)
	}

	log := baseLogger.With().Str("component", "tg_notifier").Logger()
	log.Info().Str("bot", api.Self.UserName).Msg("Telegram notifier initialized")

	return &tgNotifier{api: api, chatID: chatID, log: log}, nil
}

// Notify sends a plain-text message to the staff chat.
func (n *tgNotifier) Notify(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		n.log.Error().Err(err).Int64("chat_id", n.chatID).Msg("Failed to send staff notification")
		return err
	}
	return nil
}

// SubscribeStaffEvents wires a notifier onto the bus topics staff care
// about. Kept here so the composition root stays small.
func SubscribeStaffEvents(bus ports.EventBus, notifier ports.Notifier, baseLogger *zerolog.Logger) {
	log := baseLogger.With().Str("component", "tg_notifier").Logger()

	bus.Subscribe(ports.TopicUserRegistered, func(ctx context.Context, event ports.Event) error {
		user, ok := event.Data.(*domain.User)
		if !ok {
			log.Error().Str("topic", event.Topic).Msg("Unexpected event payload")
			return nil
		}
		text := fmt.Sprintf("New registration awaiting review:\n%s <%s>", user.Name, user.Email)
		return notifier.Notify(ctx, text)
	})

	bus.Subscribe(ports.TopicPaymentRequested, func(ctx context.Context, event ports.Event) error {
		payment, ok := event.Data.(*domain.Payment)
		if !ok {
			log.Error().Str("topic", event.Topic).Msg("Unexpected event payload")
			return nil
		}
		text := fmt.Sprintf("Withdrawal request of %.2f awaiting review (payment %s)",
			payment.Amount, payment.ID)
		return notifier.Notify(ctx, text)
	})
}
