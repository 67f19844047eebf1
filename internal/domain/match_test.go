package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch_BuyHitsLatestAsk(t *testing.T) {
	bet := Bet{CurrentBid: 0, CurrentAsk: 100}
	updates := ledger(
		QuoteUpdate{NewAsk: f(100), UpdaterUsername: "Carol", Timestamp: at(0)},
		QuoteUpdate{NewAsk: f(60), UpdaterUsername: "Alice", Timestamp: at(5)},
		QuoteUpdate{NewBid: f(40), UpdaterUsername: "Dave", Timestamp: at(6)},
	)

	plan, err := Match(bet, updates, DirectionBuy, "bob")
	require.NoError(t, err)

	assert.Equal(t, 60.0, plan.Price)
	assert.Equal(t, "Bob", plan.Buyer)
	assert.Equal(t, "Alice", plan.Seller)
	assert.Equal(t, "Alice", plan.Maker)
	assert.Equal(t, "Bob", plan.Taker)
}

func TestMatch_SellHitsLatestBid(t *testing.T) {
	bet := Bet{CurrentBid: 0, CurrentAsk: 100}
	updates := ledger(
		QuoteUpdate{NewBid: f(0), UpdaterUsername: "Carol", Timestamp: at(0)},
		QuoteUpdate{NewBid: f(35), UpdaterUsername: "dave", Timestamp: at(4)},
	)

	plan, err := Match(bet, updates, DirectionSell, "ALICE")
	require.NoError(t, err)

	assert.Equal(t, 35.0, plan.Price)
	assert.Equal(t, "Dave", plan.Buyer)
	assert.Equal(t, "Alice", plan.Seller)
	assert.Equal(t, "Dave", plan.Maker)
	assert.Equal(t, "Alice", plan.Taker)
}

func TestMatch_NoQuoteOnRequiredSide(t *testing.T) {
	bet := Bet{}
	onlyBids := ledger(QuoteUpdate{NewBid: f(10), UpdaterUsername: "Alice", Timestamp: at(1)})

	_, err := Match(bet, onlyBids, DirectionBuy, "bob")
	assert.ErrorIs(t, err, ErrNoQuote)

	onlyAsks := ledger(QuoteUpdate{NewAsk: f(90), UpdaterUsername: "Alice", Timestamp: at(1)})
	_, err = Match(bet, onlyAsks, DirectionSell, "bob")
	assert.ErrorIs(t, err, ErrNoQuote)
}

func TestMatch_AlreadyTraded(t *testing.T) {
	bet := Bet{IsTraded: true}
	updates := ledger(QuoteUpdate{NewAsk: f(90), UpdaterUsername: "Alice", Timestamp: at(1)})

	for _, dir := range []Direction{DirectionBuy, DirectionSell} {
		_, err := Match(bet, updates, dir, "bob")
		assert.ErrorIs(t, err, ErrAlreadyTraded)
	}
}

func TestMatch_SelfTradePermitted(t *testing.T) {
	bet := Bet{}
	updates := ledger(QuoteUpdate{NewAsk: f(70), UpdaterUsername: "Alice", Timestamp: at(1)})

	plan, err := Match(bet, updates, DirectionBuy, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", plan.Buyer)
	assert.Equal(t, "Alice", plan.Seller)
}

func TestMatch_InvalidDirection(t *testing.T) {
	_, err := Match(Bet{}, nil, Direction("hold"), "bob")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCanonicalize(t *testing.T) {
	assert.Equal(t, "Bob", Canonicalize("bob"))
	assert.Equal(t, "Bob", Canonicalize("BOB"))
	assert.Equal(t, "Bob", Canonicalize("  bOb "))
	assert.Equal(t, "", Canonicalize("   "))
	assert.Equal(t, "Élodie", Canonicalize("éLODIE"))
}
