package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tejeshkinariwala/tightentrade/internal/domain"
	"github.com/tejeshkinariwala/tightentrade/internal/notify"
)

// PushService manages browser push subscriptions.
type PushService struct {
	subs   domain.SubscriptionStore
	pusher Pusher
	logger *slog.Logger
}

// NewPushService creates a PushService.
func NewPushService(subs domain.SubscriptionStore, pusher Pusher, logger *slog.Logger) *PushService {
	return &PushService{
		subs:   subs,
		pusher: pusher,
		logger: logger.With(slog.String("component", "push_service")),
	}
}

// Subscribe registers (or refreshes) a push subscription.
func (s *PushService) Subscribe(ctx context.Context, endpoint, p256dh, auth string) error {
	if endpoint == "" || p256dh == "" || auth == "" {
		return domain.ErrInvalidInput
	}

	err := s.subs.Upsert(ctx, domain.PushSubscription{
		Endpoint: endpoint,
		P256dh:   p256dh,
		Auth:     auth,
	})
	if err != nil {
		return fmt.Errorf("push_service: subscribe: %w", err)
	}

	s.logger.InfoContext(ctx, "push subscription registered",
		slog.String("endpoint", endpoint),
	)
	return nil
}

// SendTest pushes a test notification to every subscription so operators can
// verify the delivery path end to end.
func (s *PushService) SendTest(ctx context.Context) error {
	if s.pusher == nil {
		return nil
	}
	return s.pusher.Notify(ctx, notify.Notification{
		Title: "Test Notification",
		Body:  "Push notifications are working",
		URL:   "/",
	})
}
