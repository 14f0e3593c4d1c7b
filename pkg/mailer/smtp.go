package mailer

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/noah-isme/civic-report-api/pkg/config"
)

const smtpTimeout = 15 * time.Second

// SMTPTransport delivers mail over STARTTLS with PLAIN authentication.
type SMTPTransport struct {
	from   string
	client *gomail.Client
	logger *zap.Logger
}

// NewSMTPTransport configures the SMTP client. No connection is opened until Send.
func NewSMTPTransport(cfg config.MailConfig, logger *zap.Logger) (*SMTPTransport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := gomail.NewClient(cfg.SMTPServer,
		gomail.WithPort(cfg.SMTPPort),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.SenderEmail),
		gomail.WithPassword(cfg.SenderPassword),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
		gomail.WithTimeout(smtpTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("configure smtp client: %w", err)
	}
	return &SMTPTransport{from: cfg.SenderEmail, client: client, logger: logger}, nil
}

// Send opens a session, delivers the message and closes the session.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	m := gomail.NewMsg()
	if err := m.From(t.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)

	if err := t.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	t.logger.Debug("mail sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
