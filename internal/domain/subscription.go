package domain

import "time"

// PushSubscription holds the endpoint and keys of one browser push
// subscription. Endpoints are unique; re-subscribing refreshes the keys.
type PushSubscription struct {
	ID        string
	Endpoint  string
	P256dh    string
	Auth      string
	CreatedAt time.Time
}
