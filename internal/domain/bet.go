package domain

import (
	"math"
	"time"
)

// Side identifies which side of the market a quote rests on.
type Side string

const (
	SideBid Side = "bid"
	SideAsk Side = "ask"
)

// Direction is the taker's side of a trade request.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// Seed prices every bet opens with. Prices are probability percentages in
// [0, 100].
const (
	SeedBid = 0.0
	SeedAsk = 100.0
)

// Bet is a binary event market between two counterparties. Lifecycle:
// open (quoting) -> traded (one trade executed) -> settled (outcome known).
// CurrentBid and CurrentAsk are denormalized for fast reads; the quote-update
// ledger is the source of truth for "most recent".
type Bet struct {
	ID          string
	EventName   string
	Notional    float64
	CurrentBid  float64
	CurrentAsk  float64
	IsTraded    bool
	IsSettled   bool
	EventResult *bool
	CreatorID   string
	CreatedAt   time.Time
}

// QuoteUpdate is one append-only entry in a bet's quote ledger. Exactly one
// of NewBid/NewAsk is set; a quote update is always one-sided.
type QuoteUpdate struct {
	ID              string
	BetID           string
	UpdaterID       string
	UpdaterUsername string
	NewBid          *float64
	NewAsk          *float64
	Timestamp       time.Time
}

// BetDetail is a bet together with everything a client needs to render it:
// the creator, any trade, and the full quote history newest-first.
type BetDetail struct {
	Bet
	Creator      User
	Trades       []Trade
	QuoteUpdates []QuoteUpdate
}

// ValidPrice reports whether v is a usable probability percentage.
func ValidPrice(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= 100
}

// ValidNotional reports whether v is a usable notional amount.
func ValidNotional(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
