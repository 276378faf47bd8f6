// Package notify delivers e-mail notifications outside the request lifecycle.
package notify

import (
	"context"
	"log/slog"
)

type Kind string

const (
	KindWelcome        Kind = "welcome"
	KindPasswordReset  Kind = "password_reset"
	KindLeaveSubmitted Kind = "leave_submitted"
	KindStatusChanged  Kind = "status_changed"
	KindLeaveAccepted  Kind = "leave_accepted"
)

type EmailMessage struct {
	Kind    Kind   `json:"kind"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Link    string `json:"link,omitempty"`
}

type Sender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// LogSender only records messages. It is used when no transport is configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(_ context.Context, msg EmailMessage) error {
	s.Logger.Info("Email notification",
		slog.String("kind", string(msg.Kind)),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)

	return nil
}
