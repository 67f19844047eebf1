package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmountOwed(t *testing.T) {
	assert.InDelta(t, 70.0, AmountOwed(100, 30, true), 1e-9)
	assert.InDelta(t, 30.0, AmountOwed(100, 30, false), 1e-9)
	assert.InDelta(t, 0.0, AmountOwed(100, 100, true), 1e-9)
	assert.InDelta(t, 12.5, AmountOwed(50, 25, false), 1e-9)
}

func TestSettleTrade_EventHappened(t *testing.T) {
	trade := Trade{Buyer: "Bob", Seller: "Alice", Price: 30}

	s := SettleTrade(100, trade, true)
	assert.InDelta(t, 70.0, s.Amount, 1e-9)
	assert.Equal(t, "Alice", s.OwedBy)
	assert.Equal(t, "Bob", s.OwedTo)
	assert.Equal(t, "Alice owes Bob $70.00", s.Description)
}

func TestSettleTrade_EventDidNotHappen(t *testing.T) {
	trade := Trade{Buyer: "Bob", Seller: "Alice", Price: 30}

	s := SettleTrade(100, trade, false)
	assert.InDelta(t, 30.0, s.Amount, 1e-9)
	assert.Equal(t, "Bob", s.OwedBy)
	assert.Equal(t, "Alice", s.OwedTo)
	assert.Equal(t, "Bob owes Alice $30.00", s.Description)
}

func TestSettleTrade_RoundsDescriptionOnly(t *testing.T) {
	trade := Trade{Buyer: "Bob", Seller: "Alice", Price: 33.333}

	s := SettleTrade(100, trade, false)
	assert.InDelta(t, 33.333, s.Amount, 1e-9)
	assert.Equal(t, "Bob owes Alice $33.33", s.Description)
}
