// Package handler contains the HTTP boundary: request decoding, domain
// error mapping, and tagged wire types.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tejeshkinariwala/tightentrade/internal/domain"
	"github.com/tejeshkinariwala/tightentrade/internal/service"
)

// BetService defines the methods that the bet handler requires from the
// service layer.
type BetService interface {
	Create(ctx context.Context, eventName string, notional float64, creatorUsername string) (domain.BetDetail, error)
	List(ctx context.Context) ([]domain.BetDetail, error)
	UpdateQuote(ctx context.Context, betID string, side domain.Side, value float64, updaterUsername string) (domain.BetDetail, error)
	UpdateNotional(ctx context.Context, betID string, value float64) (domain.BetDetail, error)
	RequestTrade(ctx context.Context, betID string, dir domain.Direction, takerUsername string) (service.TradeResult, error)
	Settle(ctx context.Context, betID string, outcome bool) (domain.BetDetail, domain.Settlement, error)
	Delete(ctx context.Context, betID string) error
}

// BetHandler serves the bet lifecycle HTTP endpoints.
type BetHandler struct {
	bets   BetService
	logger *slog.Logger
}

// NewBetHandler creates a BetHandler with the given service and logger.
func NewBetHandler(bets BetService, logger *slog.Logger) *BetHandler {
	return &BetHandler{
		bets:   bets,
		logger: logger,
	}
}

// ListBets returns every bet newest-first with creator, trade, and quote
// history.
// GET /api/bets
func (h *BetHandler) ListBets(w http.ResponseWriter, r *http.Request) {
	bets, err := h.bets.List(r.Context())
	if err != nil {
		writeDomainError(w, r, h.logger, err, "list bets")
		return
	}
	writeJSON(w, http.StatusOK, toBetDTOs(bets))
}

// createBetRequest is the JSON body for creating a bet.
type createBetRequest struct {
	EventName   string  `json:"eventName"`
	Notional    float64 `json:"notional"`
	CreatorName string  `json:"creatorName"`
}

// CreateBet opens a new bet seeded with a 0 bid and 100 ask by the creator.
// POST /api/bets
func (h *BetHandler) CreateBet(w http.ResponseWriter, r *http.Request) {
	var req createBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.EventName == "" || req.CreatorName == "" {
		writeError(w, http.StatusBadRequest, "eventName and creatorName are required")
		return
	}

	detail, err := h.bets.Create(r.Context(), req.EventName, req.Notional, req.CreatorName)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "create bet")
		return
	}
	writeJSON(w, http.StatusCreated, toBetDTO(detail))
}

// updateBetRequest is the JSON body for PATCH /api/bets/{id}. Type selects
// what is being changed: "bid", "ask", or "notional".
type updateBetRequest struct {
	Type        string  `json:"type"`
	Value       float64 `json:"value"`
	UpdaterName string  `json:"updaterName"`
}

// UpdateBet changes a quote side or the notional of an open bet.
// PATCH /api/bets/{id}
func (h *BetHandler) UpdateBet(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing bet id")
		return
	}

	var req updateBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	var (
		detail domain.BetDetail
		err    error
	)
	switch req.Type {
	case "bid":
		detail, err = h.bets.UpdateQuote(r.Context(), id, domain.SideBid, req.Value, req.UpdaterName)
	case "ask":
		detail, err = h.bets.UpdateQuote(r.Context(), id, domain.SideAsk, req.Value, req.UpdaterName)
	case "notional":
		detail, err = h.bets.UpdateNotional(r.Context(), id, req.Value)
	default:
		writeError(w, http.StatusBadRequest, "type must be bid, ask, or notional")
		return
	}
	if err != nil {
		writeDomainError(w, r, h.logger, err, "update bet")
		return
	}
	writeJSON(w, http.StatusOK, toBetDTO(detail))
}

// tradeRequest is the JSON body for executing a trade against a bet. Type
// is the taker's direction: "buy" hits the ask, "sell" hits the bid.
type tradeRequest struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

// tradeResponse wraps the trade outcome.
type tradeResponse struct {
	Bet         betDTO   `json:"bet"`
	Trade       tradeDTO `json:"trade"`
	Description string   `json:"description"`
}

// Trade executes the single trade that closes the bet: buy hits the latest
// ask, sell hits the latest bid.
// POST /api/bets/{id}/trade
func (h *BetHandler) Trade(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing bet id")
		return
	}

	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	var dir domain.Direction
	switch req.Type {
	case "buy":
		dir = domain.DirectionBuy
	case "sell":
		dir = domain.DirectionSell
	default:
		writeError(w, http.StatusBadRequest, "type must be buy or sell")
		return
	}

	result, err := h.bets.RequestTrade(r.Context(), id, dir, req.Username)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "execute trade")
		return
	}

	resp := tradeResponse{
		Bet:         toBetDTO(result.Bet),
		Description: result.Description,
		Trade: tradeDTO{
			ID:        result.Trade.ID,
			Buyer:     result.Trade.Buyer,
			Seller:    result.Trade.Seller,
			Maker:     result.Trade.Maker,
			Taker:     result.Trade.Taker,
			Price:     result.Trade.Price,
			CreatedAt: result.Trade.CreatedAt,
		},
	}
	writeJSON(w, http.StatusOK, resp)
}

// settleRequest is the JSON body recording the event outcome.
type settleRequest struct {
	Result bool `json:"result"`
}

// settleResponse wraps the settled bet and the computed transfer.
type settleResponse struct {
	Bet        betDTO        `json:"bet"`
	Settlement settlementDTO `json:"settlement"`
}

// Settle records the event outcome on a traded bet and reports who owes
// whom.
// POST /api/bets/{id}/settle
func (h *BetHandler) Settle(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing bet id")
		return
	}

	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	detail, settlement, err := h.bets.Settle(r.Context(), id, req.Result)
	if err != nil {
		writeDomainError(w, r, h.logger, err, "settle bet")
		return
	}

	writeJSON(w, http.StatusOK, settleResponse{
		Bet:        toBetDTO(detail),
		Settlement: toSettlementDTO(settlement),
	})
}

// DeleteBet removes a bet and its trade and quote history.
// DELETE /api/bets/{id}
func (h *BetHandler) DeleteBet(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing bet id")
		return
	}

	if err := h.bets.Delete(r.Context(), id); err != nil {
		writeDomainError(w, r, h.logger, err, "delete bet")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "deleted",
		"bet_id": id,
	})
}
