package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"
	"github.com/you/tradeauth/domain"
)

// SMTPConfig holds the outgoing mail server settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPServiceImpl implements domain.EmailSender
type SMTPServiceImpl struct {
	cfg    SMTPConfig
	send   func(ctx context.Context, msg *mail.Msg) error
	logger *slog.Logger
}

// NewSMTPService creates an email sender. Without a host messages are logged
// instead of sent.
func NewSMTPService(cfg SMTPConfig, logger *slog.Logger) domain.EmailSender {
	s := &SMTPServiceImpl{cfg: cfg, logger: logger}
	s.send = s.dialAndSend
	return s
}

// SendEmail implements domain.EmailSender
func (s *SMTPServiceImpl) SendEmail(ctx context.Context, to, subject, body string) error {
	if s.cfg.Host == "" {
		s.logger.InfoContext(ctx, "email delivery not configured, logging message", "to", to, "subject", subject, "body", body)
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return fmt.Errorf("failed to set sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("failed to set recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := s.send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *SMTPServiceImpl) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}
