package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/tejeshkinariwala/tightentrade/internal/domain"
)

// WebPushSender delivers notifications to every registered browser push
// subscription using the Web Push protocol with VAPID authentication.
type WebPushSender struct {
	subs       domain.SubscriptionStore
	subscriber string
	publicKey  string
	privateKey string
	ttl        int
	logger     *slog.Logger
}

// NewWebPushSender creates a WebPushSender. subscriber is the contact URL or
// mailto: address reported to push services in the VAPID claims.
func NewWebPushSender(subs domain.SubscriptionStore, subscriber, publicKey, privateKey string, logger *slog.Logger) *WebPushSender {
	return &WebPushSender{
		subs:       subs,
		subscriber: subscriber,
		publicKey:  publicKey,
		privateKey: privateKey,
		ttl:        60,
		logger:     logger.With(slog.String("component", "webpush")),
	}
}

// Send pushes the notification to every subscription. Subscriptions whose
// endpoint reports 410 Gone are pruned. Individual endpoint failures are
// collected; delivery continues to the remaining subscriptions.
func (w *WebPushSender) Send(ctx context.Context, n Notification) error {
	subs, err := w.subs.List(ctx)
	if err != nil {
		return fmt.Errorf("webpush: list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil
	}

	payload, err := json.Marshal(map[string]string{
		"title": n.Title,
		"body":  n.Body,
		"url":   n.URL,
	})
	if err != nil {
		return fmt.Errorf("webpush: marshal payload: %w", err)
	}

	var errs []string
	for _, sub := range subs {
		if err := w.sendOne(ctx, sub, payload); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("webpush: %d endpoint(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

func (w *WebPushSender) sendOne(ctx context.Context, sub domain.PushSubscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      w.subscriber,
		VAPIDPublicKey:  w.publicKey,
		VAPIDPrivateKey: w.privateKey,
		TTL:             w.ttl,
	})
	if err != nil {
		return fmt.Errorf("send to %s: %w", sub.Endpoint, err)
	}
	defer resp.Body.Close()

	// The push service reports Gone when the browser dropped the
	// subscription; keep the table tidy.
	if resp.StatusCode == http.StatusGone {
		if delErr := w.subs.DeleteByEndpoint(ctx, sub.Endpoint); delErr != nil {
			w.logger.WarnContext(ctx, "failed to prune gone subscription",
				slog.String("endpoint", sub.Endpoint),
				slog.String("error", delErr.Error()),
			)
		} else {
			w.logger.InfoContext(ctx, "pruned gone subscription",
				slog.String("endpoint", sub.Endpoint),
			)
		}
		return nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("send to %s: unexpected status %d", sub.Endpoint, resp.StatusCode)
	}
	return nil
}

// Name returns the sender identifier.
func (w *WebPushSender) Name() string {
	return "webpush"
}
