package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/kestrelhq/leave-backend-go/internal/config"
)

// Notifier delivers workflow notifications. Implementations must never
// block or fail the calling workflow; callers log errors and move on.
type Notifier interface {
	Notify(ctx context.Context, recipientEmail, subject, body string) error
}

type smtpNotifier struct {
	cfg config.SMTPConfig
}

// NewSMTPNotifier creates a notifier that delivers over plain SMTP.
func NewSMTPNotifier(cfg config.SMTPConfig) Notifier {
	return &smtpNotifier{cfg: cfg}
}

func (s *smtpNotifier) Notify(ctx context.Context, recipientEmail, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s",
		s.cfg.From, recipientEmail, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{recipientEmail}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send notification to %s: %w", recipientEmail, err)
	}

	slog.Info("notification sent", "recipient", recipientEmail, "subject", subject)
	return nil
}

type logNotifier struct{}

// NewLogNotifier creates a notifier that only logs. Used when SMTP is disabled.
func NewLogNotifier() Notifier {
	return &logNotifier{}
}

func (l *logNotifier) Notify(ctx context.Context, recipientEmail, subject, body string) error {
	slog.Info("notification (delivery disabled)", "recipient", recipientEmail, "subject", subject)
	return nil
}
