// Package mailer delivers plain-text notification mail. The transport is
// chosen from configuration: SMTP when a sender password is present, a
// log-only transport otherwise.
package mailer

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/civic-report-api/pkg/config"
)

// ErrNoRecipient is returned when a message has no destination address.
var ErrNoRecipient = errors.New("mailer: message has no recipient")

// Message is a single plain-text mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Transport sends one message.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// New selects the transport for the mail configuration.
func New(cfg config.MailConfig, logger *zap.Logger) (Transport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SenderPassword == "" {
		logger.Warn("sender password not configured, notification mail will only be logged",
			zap.String("sender", cfg.SenderEmail))
		return NewLogTransport(cfg.SenderEmail, logger), nil
	}
	return NewSMTPTransport(cfg, logger)
}

// LogTransport records messages through zap instead of delivering them.
type LogTransport struct {
	from   string
	logger *zap.Logger
}

// NewLogTransport builds a log-only transport.
func NewLogTransport(from string, logger *zap.Logger) *LogTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogTransport{from: from, logger: logger}
}

// Send logs the message and always succeeds for a message with a recipient.
func (t *LogTransport) Send(_ context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	t.logger.Info("mail not sent (log-only transport)",
		zap.String("from", t.from),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.Body)),
	)
	return nil
}
