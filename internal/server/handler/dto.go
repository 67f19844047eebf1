package handler

import (
	"time"

	"github.com/tejeshkinariwala/tightentrade/internal/domain"
)

// Wire representations of the domain types. The domain stays tag-free; the
// boundary owns field naming.

type userDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type tradeDTO struct {
	ID        string    `json:"id"`
	Buyer     string    `json:"buyer"`
	Seller    string    `json:"seller"`
	Maker     string    `json:"maker"`
	Taker     string    `json:"taker"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
}

type quoteUpdateDTO struct {
	ID        string    `json:"id"`
	Updater   string    `json:"updater"`
	NewBid    *float64  `json:"newBid"`
	NewAsk    *float64  `json:"newAsk"`
	Timestamp time.Time `json:"timestamp"`
}

type betDTO struct {
	ID           string           `json:"id"`
	EventName    string           `json:"eventName"`
	Notional     float64          `json:"notional"`
	CurrentBid   float64          `json:"currentBid"`
	CurrentAsk   float64          `json:"currentAsk"`
	IsTraded     bool             `json:"isTraded"`
	IsSettled    bool             `json:"isSettled"`
	EventResult  *bool            `json:"eventResult"`
	Creator      userDTO          `json:"creator"`
	Trades       []tradeDTO       `json:"trades"`
	QuoteUpdates []quoteUpdateDTO `json:"priceUpdates"`
	CreatedAt    time.Time        `json:"createdAt"`
}

type settlementDTO struct {
	Amount      float64 `json:"amount"`
	OwedBy      string  `json:"owedBy"`
	OwedTo      string  `json:"owedTo"`
	Description string  `json:"description"`
}

func toBetDTO(d domain.BetDetail) betDTO {
	dto := betDTO{
		ID:           d.ID,
		EventName:    d.EventName,
		Notional:     d.Notional,
		CurrentBid:   d.CurrentBid,
		CurrentAsk:   d.CurrentAsk,
		IsTraded:     d.IsTraded,
		IsSettled:    d.IsSettled,
		EventResult:  d.EventResult,
		Creator:      userDTO{ID: d.Creator.ID, Username: d.Creator.Username},
		Trades:       []tradeDTO{},
		QuoteUpdates: []quoteUpdateDTO{},
		CreatedAt:    d.CreatedAt,
	}
	for _, t := range d.Trades {
		dto.Trades = append(dto.Trades, tradeDTO{
			ID:        t.ID,
			Buyer:     t.Buyer,
			Seller:    t.Seller,
			Maker:     t.Maker,
			Taker:     t.Taker,
			Price:     t.Price,
			CreatedAt: t.CreatedAt,
		})
	}
	for _, q := range d.QuoteUpdates {
		dto.QuoteUpdates = append(dto.QuoteUpdates, quoteUpdateDTO{
			ID:        q.ID,
			Updater:   q.UpdaterUsername,
			NewBid:    q.NewBid,
			NewAsk:    q.NewAsk,
			Timestamp: q.Timestamp,
		})
	}
	return dto
}

func toBetDTOs(details []domain.BetDetail) []betDTO {
	out := make([]betDTO, 0, len(details))
	for _, d := range details {
		out = append(out, toBetDTO(d))
	}
	return out
}

func toSettlementDTO(s domain.Settlement) settlementDTO {
	return settlementDTO{
		Amount:      s.Amount,
		OwedBy:      s.OwedBy,
		OwedTo:      s.OwedTo,
		Description: s.Description,
	}
}
