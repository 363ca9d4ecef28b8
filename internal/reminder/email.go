package reminder

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/lachiem1/giddycycles/internal/config"
)

// EmailSender sends digests through SMTP.
type EmailSender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

func NewEmailSender(cfg *config.Config, logger *logrus.Logger) (*EmailSender, error) {
	if cfg.ReminderTo == "" {
		return nil, errors.New("GIDDYCYCLES_REMINDER_TO is required to send reminders")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &EmailSender{cfg: cfg, logger: logger}, nil
}

func (s *EmailSender) Send(_ context.Context, subject, body string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{s.cfg.ReminderTo}
	e.Subject = subject
	e.Text = []byte(body)

	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := e.Send(s.cfg.SMTPAddr(), auth); err != nil {
		s.logger.Errorf("Failed to send reminder to %s: %v", s.cfg.ReminderTo, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", s.cfg.ReminderTo, subject)
	return nil
}
