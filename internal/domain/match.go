package domain

// TradePlan is the outcome of matching a trade request against the quote
// ledger: the execution price and the four canonical usernames involved.
type TradePlan struct {
	Price  float64
	Buyer  string
	Seller string
	Maker  string
	Taker  string
}

// Match constructs the single trade that closes a bet. A buy hits the most
// recent resting ask, a sell hits the most recent resting bid; the maker is
// the owner of that resting quote and the taker is the requesting user.
// Usernames are canonicalized. A user may take their own resting quote;
// no self-trade guard is applied.
func Match(bet Bet, updates []QuoteUpdate, dir Direction, takerUsername string) (TradePlan, error) {
	if bet.IsTraded {
		return TradePlan{}, ErrAlreadyTraded
	}

	taker := Canonicalize(takerUsername)
	if taker == "" {
		return TradePlan{}, ErrInvalidInput
	}

	switch dir {
	case DirectionBuy:
		ask := lastUpdateOnSide(updates, SideAsk)
		if ask == nil {
			return TradePlan{}, ErrNoQuote
		}
		maker := Canonicalize(ask.UpdaterUsername)
		return TradePlan{
			Price:  *ask.NewAsk,
			Buyer:  taker,
			Seller: maker,
			Maker:  maker,
			Taker:  taker,
		}, nil
	case DirectionSell:
		bid := lastUpdateOnSide(updates, SideBid)
		if bid == nil {
			return TradePlan{}, ErrNoQuote
		}
		maker := Canonicalize(bid.UpdaterUsername)
		return TradePlan{
			Price:  *bid.NewBid,
			Buyer:  maker,
			Seller: taker,
			Maker:  maker,
			Taker:  taker,
		}, nil
	default:
		return TradePlan{}, ErrInvalidInput
	}
}
