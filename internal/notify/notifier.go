// Package notify delivers best-effort, human-readable notifications about
// bet activity. Delivery failures are logged and never propagate into the
// state change that triggered them.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Notification is one message to deliver: a short title, a body, and a
// deep-link URL into the client.
type Notification struct {
	Title string
	Body  string
	URL   string
}

// Sender is the interface each notification channel implements.
type Sender interface {
	// Send delivers the notification to every recipient of the channel.
	Send(ctx context.Context, n Notification) error
	// Name returns a human-readable identifier for the sender (e.g. "webpush").
	Name() string
}

// Notifier dispatches notifications to one or more Senders. A single sender
// failure does not prevent delivery to the remaining senders.
type Notifier struct {
	senders []Sender
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that delivers to the given senders.
func NewNotifier(senders []Sender, logger *slog.Logger) *Notifier {
	return &Notifier{
		senders: senders,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify sends a notification through every sender. Errors are collected
// into a combined error; callers treat delivery as fire-and-forget and at
// most log the result.
func (n *Notifier) Notify(ctx context.Context, msg Notification) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, msg); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "notification sent",
				slog.String("sender", s.Name()),
				slog.String("title", msg.Title),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
