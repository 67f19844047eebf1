package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tejeshkinariwala/tightentrade/internal/domain"
)

// SubscriptionStore implements domain.SubscriptionStore using PostgreSQL.
type SubscriptionStore struct {
	q querier
}

// Upsert inserts a push subscription, refreshing the keys when the endpoint
// is already registered.
func (s *SubscriptionStore) Upsert(ctx context.Context, sub domain.PushSubscription) error {
	id := sub.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := s.q.Exec(ctx, `
		INSERT INTO push_subscriptions (id, endpoint, p256dh, auth)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (endpoint) DO UPDATE SET p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth`,
		id, sub.Endpoint, sub.P256dh, sub.Auth,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert push subscription: %w", err)
	}
	return nil
}

// List returns every registered push subscription.
func (s *SubscriptionStore) List(ctx context.Context) ([]domain.PushSubscription, error) {
	rows, err := s.q.Query(ctx,
		`SELECT id, endpoint, p256dh, auth, created_at FROM push_subscriptions`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []domain.PushSubscription
	for rows.Next() {
		var sub domain.PushSubscription
		if err := rows.Scan(&sub.ID, &sub.Endpoint, &sub.P256dh, &sub.Auth, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan push subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list push subscriptions: %w", err)
	}
	return subs, nil
}

// DeleteByEndpoint removes a subscription, used when a push endpoint reports
// itself gone.
func (s *SubscriptionStore) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	_, err := s.q.Exec(ctx,
		`DELETE FROM push_subscriptions WHERE endpoint = $1`, endpoint)
	if err != nil {
		return fmt.Errorf("postgres: delete push subscription: %w", err)
	}
	return nil
}
