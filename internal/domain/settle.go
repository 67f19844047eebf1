package domain

import "fmt"

// Settlement is the monetary transfer owed once the bet's outcome is known.
// Amount is unrounded; rounding to two decimals is a display concern.
type Settlement struct {
	Amount      float64
	OwedBy      string
	OwedTo      string
	Description string
}

// AmountOwed computes the settlement payout. The trade price is the
// probability percentage the buyer paid for the event happening: if the event
// happened the seller owes the complement, otherwise the buyer owes the
// quoted percentage.
func AmountOwed(notional, price float64, outcome bool) float64 {
	if outcome {
		return notional * (100 - price) / 100
	}
	return notional * price / 100
}

// SettleTrade resolves a trade against the event outcome. If the event
// happened the seller pays the buyer; otherwise the buyer pays the seller.
func SettleTrade(notional float64, trade Trade, outcome bool) Settlement {
	amount := AmountOwed(notional, trade.Price, outcome)

	owedBy, owedTo := trade.Buyer, trade.Seller
	if outcome {
		owedBy, owedTo = trade.Seller, trade.Buyer
	}

	return Settlement{
		Amount:      amount,
		OwedBy:      owedBy,
		OwedTo:      owedTo,
		Description: fmt.Sprintf("%s owes %s $%.2f", owedBy, owedTo, amount),
	}
}
