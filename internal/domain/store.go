package domain

import "context"

// Store is the persistence gateway. InTx runs fn against a Store whose
// operations all execute inside one transaction; state-changing bet
// operations must read, validate, and write through it so concurrent
// requests against the same bet serialize on the storage layer.
type Store interface {
	Bets() BetStore
	Users() UserStore
	Subscriptions() SubscriptionStore
	InTx(ctx context.Context, fn func(Store) error) error
}

// BetStore persists bets and the quote/trade rows a bet owns.
type BetStore interface {
	Create(ctx context.Context, bet Bet) error
	GetByID(ctx context.Context, id string) (Bet, error)
	// GetByIDForUpdate locks the bet row for the duration of the enclosing
	// transaction.
	GetByIDForUpdate(ctx context.Context, id string) (Bet, error)
	GetDetail(ctx context.Context, id string) (BetDetail, error)
	List(ctx context.Context) ([]BetDetail, error)
	SetQuote(ctx context.Context, id string, side Side, value float64) error
	SetNotional(ctx context.Context, id string, value float64) error
	MarkTraded(ctx context.Context, id string) error
	MarkSettled(ctx context.Context, id string, result bool) error
	// Delete removes the bet and its dependent trades and quote updates as
	// one unit.
	Delete(ctx context.Context, id string) error

	AppendQuoteUpdate(ctx context.Context, update QuoteUpdate) error
	// ListQuoteUpdates returns the bet's quote ledger newest-first with
	// updater usernames resolved.
	ListQuoteUpdates(ctx context.Context, betID string) ([]QuoteUpdate, error)

	CreateTrade(ctx context.Context, trade Trade) error
	ListTrades(ctx context.Context, betID string) ([]Trade, error)
}

// UserStore persists users. Usernames are expected to be canonical already.
type UserStore interface {
	GetOrCreate(ctx context.Context, username string) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
}

// SubscriptionStore persists web-push subscriptions.
type SubscriptionStore interface {
	Upsert(ctx context.Context, sub PushSubscription) error
	List(ctx context.Context) ([]PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}

// SignalBus is a fire-and-forget pub/sub channel used to fan change
// notifications out to every serving instance.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
