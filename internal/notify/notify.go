// Package notify defines the outbound notification port. Actual email/SMS
// transport lives outside this service; the core only needs delivery to be
// distinguishable from failure so the OTP gate can roll back an undeliverable
// challenge.
package notify

import (
	"context"
	"log/slog"

	"turnstile/pkg/domain"
)

// Sender delivers a message to a recipient. Implementations must return a
// non-nil error when delivery cannot be handed off.
type Sender interface {
	Send(ctx context.Context, to domain.Email, subject, body string) error
}

// LogSender writes messages to the log instead of delivering them. Used in
// development and as the default when no transport is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, to domain.Email, subject, body string) error {
	s.logger.InfoContext(ctx, "notification (log transport)",
		"to", to.String(),
		"subject", subject,
		"body", body,
	)
	return nil
}
