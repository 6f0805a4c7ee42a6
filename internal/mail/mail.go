// Package mail delivers the confirmation code emails.
package mail

import (
	"context"
	"fmt"

	"yamdb/internal/config"
	"yamdb/internal/logging"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a message or returns why it could not.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender picks the backend configured by EMAIL_BACKEND.
func NewSender(cfg *config.Config) (Sender, error) {
	switch cfg.EmailBackend {
	case "smtp":
		return NewSMTPSender(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.DefaultFromEmail,
		}), nil
	case "console":
		return ConsoleSender{From: cfg.DefaultFromEmail}, nil
	default:
		return nil, fmt.Errorf("unknown email backend %q", cfg.EmailBackend)
	}
}

// ConsoleSender writes messages to the log instead of sending them.
// Meant for local development.
type ConsoleSender struct {
	From string
}

func (s ConsoleSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logging.Info().
		Str("from", s.From).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("email")
	return nil
}
