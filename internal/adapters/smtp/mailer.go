package smtp

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"mainford/internal/core/domain"
	"mainford/internal/core/ports"
	"mainford/internal/shared/config"
)

// mailer implements ports.Mailer over a plain SMTP relay.
type mailer struct {
	cfg config.SMTPConfig
	log zerolog.Logger
}

var _ ports.Mailer = (*mailer)(nil)

// NewMailer creates the SMTP-backed mailer.
func NewMailer(cfg config.SMTPConfig, baseLogger *zerolog.Logger) ports.Mailer {
	return &mailer{
		cfg: cfg,
		log: baseLogger.With().Str("component", "smtp_mailer").Logger(),
	}
}

// Send delivers one HTML mail. The call blocks until the relay
// round trip completes.
func (m *mailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	var msg strings.Builder
	msg.WriteString("From: " + m.cfg.From + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		m.log.Error().Err(err).Str("to", to).Msg("Failed to send mail")
		return err
	}
	m.log.Info().Str("to", to).Str("subject", subject).Msg("Mail sent")
	return nil
}

// SubscribeUserEvents wires the transactional mails onto the bus.
func SubscribeUserEvents(bus ports.EventBus, m ports.Mailer, clientURL string, baseLogger *zerolog.Logger) {
	log := baseLogger.With().Str("component", "smtp_mailer").Logger()

	bus.Subscribe(ports.TopicUserRegistered, func(ctx context.Context, event ports.Event) error {
		user, ok := event.Data.(*domain.User)
		if !ok {
			log.Error().Str("topic", event.Topic).Msg("Unexpected event payload")
			return nil
		}
		body := verificationTemplate(clientURL, user.EmailVerificationToken)
		return m.Send(ctx, user.Email, "Verify Your Email", body)
	})

	bus.Subscribe(ports.TopicUserApproved, func(ctx context.Context, event ports.Event) error {
		user, ok := event.Data.(*domain.User)
		if !ok {
			log.Error().Str("topic", event.Topic).Msg("Unexpected event payload")
			return nil
		}
		return m.Send(ctx, user.Email, "Your Account Is Approved", approvalTemplate(user.Name))
	})
}
