package domain

// Quote is the current best bid/ask derived from a bet's quote ledger.
type Quote struct {
	Bid float64
	Ask float64
}

// DeriveCurrent computes the current bid and ask from the quote ledger. For
// each side independently it picks the one-sided update with the maximum
// timestamp, falling back to the bet's denormalized field when the side has
// never been quoted. The result depends only on the set of updates, not the
// order they are passed in.
func DeriveCurrent(bet Bet, updates []QuoteUpdate) Quote {
	q := Quote{Bid: bet.CurrentBid, Ask: bet.CurrentAsk}

	var lastBid, lastAsk *QuoteUpdate
	for i := range updates {
		u := &updates[i]
		if u.NewBid != nil && (lastBid == nil || u.Timestamp.After(lastBid.Timestamp)) {
			lastBid = u
		}
		if u.NewAsk != nil && (lastAsk == nil || u.Timestamp.After(lastAsk.Timestamp)) {
			lastAsk = u
		}
	}

	if lastBid != nil {
		q.Bid = *lastBid.NewBid
	}
	if lastAsk != nil {
		q.Ask = *lastAsk.NewAsk
	}
	return q
}

// lastUpdateOnSide returns the most recent update carrying the given side,
// or nil if the side has never been quoted.
func lastUpdateOnSide(updates []QuoteUpdate, side Side) *QuoteUpdate {
	var last *QuoteUpdate
	for i := range updates {
		u := &updates[i]
		set := u.NewBid
		if side == SideAsk {
			set = u.NewAsk
		}
		if set != nil && (last == nil || u.Timestamp.After(last.Timestamp)) {
			last = u
		}
	}
	return last
}

// MinIncrement is the smallest step a new quote must improve on the current
// one: 20% of the spread, clamped to [0.5, 5]. The rule self-narrows as the
// spread tightens so successive quotes always converge.
func MinIncrement(bid, ask float64) float64 {
	inc := 0.2 * (ask - bid)
	if inc < 0.5 {
		return 0.5
	}
	if inc > 5 {
		return 5
	}
	return inc
}

// ValidateQuote checks whether a one-sided quote update is legal against the
// bet's current state and derived quotes. A new bid must improve the current
// bid by at least the minimum increment and stay below the current ask; a new
// ask symmetrically must undercut by the increment and stay above the bid.
func ValidateQuote(bet Bet, updates []QuoteUpdate, side Side, value float64) error {
	if bet.IsTraded {
		return ErrInvalidState
	}
	if !ValidPrice(value) {
		return ErrInvalidInput
	}

	cur := DeriveCurrent(bet, updates)
	inc := MinIncrement(cur.Bid, cur.Ask)

	switch side {
	case SideBid:
		if value < cur.Bid+inc || value >= cur.Ask {
			return ErrInvalidQuote
		}
	case SideAsk:
		if value > cur.Ask-inc || value <= cur.Bid {
			return ErrInvalidQuote
		}
	default:
		return ErrInvalidInput
	}
	return nil
}
