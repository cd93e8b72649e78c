package email

import (
	"context"
	"log/slog"
	"time"
)

// SendRequest is one outgoing email.
type SendRequest struct {
	To      []string
	From    string // e.g. "Iron Temple Gym <desk@irontemple.in>"; empty uses the sender default
	Subject string
	HTML    string
	ReplyTo string
}

// SendResult identifies an accepted email.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers email through a provider.
// SendBatch returns the results for the leading requests it delivered; on
// error the remaining requests were not sent.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
	SendBatch(ctx context.Context, reqs []SendRequest) ([]SendResult, error)
}

// NewSender returns a Resend sender when an API key is configured and a
// logging no-op sender otherwise.
func NewSender(apiKey, from string) Sender {
	if apiKey == "" {
		slog.Warn("email_event", "event", "provider_disabled", "reason", "no GYM_RESEND_KEY; emails are logged only")
		return NewNoopSender()
	}
	return NewResendSender(apiKey, from)
}
