package domain

import "time"

// Trade records the single execution that closes a bet. Buyer and seller are
// derived from the trade direction; maker is the user whose resting quote was
// hit and taker is the user who initiated the trade. The username fields are
// denormalized from the users table for display and settlement.
type Trade struct {
	ID        string
	BetID     string
	BuyerID   string
	SellerID  string
	MakerID   string
	TakerID   string
	Buyer     string
	Seller    string
	Maker     string
	Taker     string
	Price     float64
	CreatedAt time.Time
}
