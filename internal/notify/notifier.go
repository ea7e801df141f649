// Package notify composes registration notifications and hands them to a
// delivery backend.
package notify

import (
	"context"
	"log/slog"
	"strings"
)

// Message is a single plain-text notification.
type Message struct {
	// From is empty when the backend's default sender applies.
	From    string
	To      []string
	Subject string
	Body    string
}

// Notifier delivers messages. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// LogNotifier writes the envelope at info level and the body at debug level.
// Bodies carry credentials, so debug logging must stay off in production.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, msg Message) error {
	n.logger.InfoContext(ctx, "notification sent",
		"from", msg.From,
		"to", strings.Join(msg.To, ","),
		"subject", msg.Subject,
		"body_bytes", len(msg.Body),
	)
	n.logger.DebugContext(ctx, "notification body", "subject", msg.Subject, "body", msg.Body)
	return nil
}
