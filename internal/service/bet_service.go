// Package service orchestrates the bet lifecycle: it runs every
// state-changing operation inside one storage transaction and triggers the
// broadcast and push gateways after commit.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tejeshkinariwala/tightentrade/internal/domain"
	"github.com/tejeshkinariwala/tightentrade/internal/notify"
)

// Broadcaster tells every connected client that state changed so they can
// re-fetch. Fire-and-forget: failures are the broadcaster's problem to log.
type Broadcaster interface {
	NotifyAll(ctx context.Context)
}

// Pusher delivers a human-readable push notification, best effort.
type Pusher interface {
	Notify(ctx context.Context, n notify.Notification) error
}

// BetService implements the bet lifecycle over the persistence gateway.
type BetService struct {
	store       domain.Store
	broadcaster Broadcaster
	pusher      Pusher
	logger      *slog.Logger
}

// NewBetService creates a BetService with all required dependencies.
func NewBetService(store domain.Store, broadcaster Broadcaster, pusher Pusher, logger *slog.Logger) *BetService {
	return &BetService{
		store:       store,
		broadcaster: broadcaster,
		pusher:      pusher,
		logger:      logger.With(slog.String("component", "bet_service")),
	}
}

// TradeResult is the outcome of a trade request: the created trade, the
// updated bet, and a human-readable description of what happened.
type TradeResult struct {
	Trade       domain.Trade
	Bet         domain.BetDetail
	Description string
}

// Create opens a new bet with seed quotes (bid 0, ask 100 by the creator)
// written atomically with the bet itself.
func (s *BetService) Create(ctx context.Context, eventName string, notional float64, creatorUsername string) (domain.BetDetail, error) {
	if eventName == "" || !domain.ValidNotional(notional) {
		return domain.BetDetail{}, domain.ErrInvalidInput
	}
	creator := domain.Canonicalize(creatorUsername)
	if creator == "" {
		return domain.BetDetail{}, domain.ErrInvalidInput
	}

	var detail domain.BetDetail
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		user, err := tx.Users().GetOrCreate(ctx, creator)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		bet := domain.Bet{
			ID:         uuid.NewString(),
			EventName:  eventName,
			Notional:   notional,
			CurrentBid: domain.SeedBid,
			CurrentAsk: domain.SeedAsk,
			CreatorID:  user.ID,
			CreatedAt:  now,
		}
		if err := tx.Bets().Create(ctx, bet); err != nil {
			return err
		}

		seedBid, seedAsk := domain.SeedBid, domain.SeedAsk
		seeds := []domain.QuoteUpdate{
			{ID: uuid.NewString(), BetID: bet.ID, UpdaterID: user.ID, NewBid: &seedBid, Timestamp: now},
			{ID: uuid.NewString(), BetID: bet.ID, UpdaterID: user.ID, NewAsk: &seedAsk, Timestamp: now},
		}
		for _, seed := range seeds {
			if err := tx.Bets().AppendQuoteUpdate(ctx, seed); err != nil {
				return err
			}
		}

		detail, err = tx.Bets().GetDetail(ctx, bet.ID)
		return err
	})
	if err != nil {
		return domain.BetDetail{}, fmt.Errorf("bet_service: create bet: %w", err)
	}

	s.broadcaster.NotifyAll(ctx)
	s.push(ctx, notify.Notification{
		Title: "New Bet Created",
		Body:  fmt.Sprintf("%s created a new bet: %s (%g⚜️)", creator, eventName, notional),
		URL:   "/bets/" + detail.ID,
	})

	s.logger.InfoContext(ctx, "bet created",
		slog.String("bet_id", detail.ID),
		slog.String("creator", creator),
		slog.Float64("notional", notional),
	)
	return detail, nil
}

// List returns every bet newest-first with creator, trades, and quote
// history.
func (s *BetService) List(ctx context.Context) ([]domain.BetDetail, error) {
	bets, err := s.store.Bets().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("bet_service: list bets: %w", err)
	}
	return bets, nil
}

// UpdateQuote appends a one-sided quote to the bet's ledger after checking
// the increment and crossing rules against the currently-derived quotes. The
// read, validation, and both writes happen in one transaction.
func (s *BetService) UpdateQuote(ctx context.Context, betID string, side domain.Side, value float64, updaterUsername string) (domain.BetDetail, error) {
	updater := domain.Canonicalize(updaterUsername)
	if updater == "" {
		return domain.BetDetail{}, domain.ErrInvalidInput
	}

	var detail domain.BetDetail
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		bet, err := tx.Bets().GetByIDForUpdate(ctx, betID)
		if err != nil {
			return err
		}
		updates, err := tx.Bets().ListQuoteUpdates(ctx, betID)
		if err != nil {
			return err
		}
		if err := domain.ValidateQuote(bet, updates, side, value); err != nil {
			return err
		}

		user, err := tx.Users().GetOrCreate(ctx, updater)
		if err != nil {
			return err
		}

		update := domain.QuoteUpdate{
			ID:        uuid.NewString(),
			BetID:     betID,
			UpdaterID: user.ID,
			Timestamp: time.Now().UTC(),
		}
		if side == domain.SideBid {
			update.NewBid = &value
		} else {
			update.NewAsk = &value
		}
		if err := tx.Bets().AppendQuoteUpdate(ctx, update); err != nil {
			return err
		}
		if err := tx.Bets().SetQuote(ctx, betID, side, value); err != nil {
			return err
		}

		detail, err = tx.Bets().GetDetail(ctx, betID)
		return err
	})
	if err != nil {
		return domain.BetDetail{}, fmt.Errorf("bet_service: update quote on bet %s: %w", betID, err)
	}

	verb := "raised bid to"
	if side == domain.SideAsk {
		verb = "lowered ask to"
	}
	s.broadcaster.NotifyAll(ctx)
	s.push(ctx, notify.Notification{
		Title: "Price Update",
		Body:  fmt.Sprintf("%s %s %g⚜️ on %s", updater, verb, value, detail.EventName),
		URL:   "/bets/" + detail.ID,
	})

	return detail, nil
}

// UpdateNotional changes the bet's notional. Allowed in any lifecycle state.
func (s *BetService) UpdateNotional(ctx context.Context, betID string, value float64) (domain.BetDetail, error) {
	if !domain.ValidNotional(value) {
		return domain.BetDetail{}, domain.ErrInvalidInput
	}

	var detail domain.BetDetail
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		if _, err := tx.Bets().GetByIDForUpdate(ctx, betID); err != nil {
			return err
		}
		if err := tx.Bets().SetNotional(ctx, betID, value); err != nil {
			return err
		}
		var err error
		detail, err = tx.Bets().GetDetail(ctx, betID)
		return err
	})
	if err != nil {
		return domain.BetDetail{}, fmt.Errorf("bet_service: update notional on bet %s: %w", betID, err)
	}

	s.broadcaster.NotifyAll(ctx)
	return detail, nil
}

// RequestTrade executes the single trade that closes the bet: the taker hits
// the most recent resting quote on the opposing side at its quoted price.
// The quote-ledger read and the trade write share one transaction so a
// concurrent quote update cannot change the price in between.
func (s *BetService) RequestTrade(ctx context.Context, betID string, dir domain.Direction, takerUsername string) (TradeResult, error) {
	var result TradeResult
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		bet, err := tx.Bets().GetByIDForUpdate(ctx, betID)
		if err != nil {
			return err
		}
		updates, err := tx.Bets().ListQuoteUpdates(ctx, betID)
		if err != nil {
			return err
		}

		plan, err := domain.Match(bet, updates, dir, takerUsername)
		if err != nil {
			return err
		}

		buyer, err := tx.Users().GetOrCreate(ctx, plan.Buyer)
		if err != nil {
			return err
		}
		seller, err := tx.Users().GetOrCreate(ctx, plan.Seller)
		if err != nil {
			return err
		}
		maker, err := tx.Users().GetOrCreate(ctx, plan.Maker)
		if err != nil {
			return err
		}
		taker, err := tx.Users().GetOrCreate(ctx, plan.Taker)
		if err != nil {
			return err
		}

		trade := domain.Trade{
			ID:        uuid.NewString(),
			BetID:     betID,
			BuyerID:   buyer.ID,
			SellerID:  seller.ID,
			MakerID:   maker.ID,
			TakerID:   taker.ID,
			Buyer:     plan.Buyer,
			Seller:    plan.Seller,
			Maker:     plan.Maker,
			Taker:     plan.Taker,
			Price:     plan.Price,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Bets().CreateTrade(ctx, trade); err != nil {
			return err
		}
		if err := tx.Bets().MarkTraded(ctx, betID); err != nil {
			return err
		}

		side := "ask"
		if dir == domain.DirectionSell {
			side = "bid"
		}
		result = TradeResult{
			Trade: trade,
			Description: fmt.Sprintf("Trade executed: %s bought from %s at %g (%s hit %s's %s)",
				plan.Buyer, plan.Seller, plan.Price, plan.Taker, plan.Maker, side),
		}
		result.Bet, err = tx.Bets().GetDetail(ctx, betID)
		return err
	})
	if err != nil {
		return TradeResult{}, fmt.Errorf("bet_service: trade on bet %s: %w", betID, err)
	}

	verb := "bought from"
	if dir == domain.DirectionSell {
		verb = "sold to"
	}
	s.broadcaster.NotifyAll(ctx)
	s.push(ctx, notify.Notification{
		Title: "Trade Executed",
		Body: fmt.Sprintf("%s %s %s at %g⚜️ (%s)",
			result.Trade.Taker, verb, result.Trade.Maker, result.Trade.Price, result.Bet.EventName),
		URL: "/bets/" + betID,
	})

	s.logger.InfoContext(ctx, "trade executed",
		slog.String("bet_id", betID),
		slog.String("buyer", result.Trade.Buyer),
		slog.String("seller", result.Trade.Seller),
		slog.Float64("price", result.Trade.Price),
	)
	return result, nil
}

// Settle records the event outcome and computes the settlement transfer from
// the bet's final trade. Settling an untraded or already-settled bet is
// rejected.
func (s *BetService) Settle(ctx context.Context, betID string, outcome bool) (domain.BetDetail, domain.Settlement, error) {
	var (
		detail     domain.BetDetail
		settlement domain.Settlement
	)
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		bet, err := tx.Bets().GetByIDForUpdate(ctx, betID)
		if err != nil {
			return err
		}
		if !bet.IsTraded || bet.IsSettled {
			return domain.ErrInvalidState
		}

		trades, err := tx.Bets().ListTrades(ctx, betID)
		if err != nil {
			return err
		}
		if len(trades) == 0 {
			return domain.ErrInvalidState
		}
		lastTrade := trades[len(trades)-1]

		if err := tx.Bets().MarkSettled(ctx, betID, outcome); err != nil {
			return err
		}

		settlement = domain.SettleTrade(bet.Notional, lastTrade, outcome)
		detail, err = tx.Bets().GetDetail(ctx, betID)
		return err
	})
	if err != nil {
		return domain.BetDetail{}, domain.Settlement{}, fmt.Errorf("bet_service: settle bet %s: %w", betID, err)
	}

	s.broadcaster.NotifyAll(ctx)

	s.logger.InfoContext(ctx, "bet settled",
		slog.String("bet_id", betID),
		slog.Bool("outcome", outcome),
		slog.String("settlement", settlement.Description),
	)
	return detail, settlement, nil
}

// Delete removes the bet and everything it owns (trade, quote ledger) as one
// atomic unit. Permitted in any state.
func (s *BetService) Delete(ctx context.Context, betID string) error {
	err := s.store.InTx(ctx, func(tx domain.Store) error {
		if _, err := tx.Bets().GetByIDForUpdate(ctx, betID); err != nil {
			return err
		}
		return tx.Bets().Delete(ctx, betID)
	})
	if err != nil {
		return fmt.Errorf("bet_service: delete bet %s: %w", betID, err)
	}

	s.broadcaster.NotifyAll(ctx)
	s.logger.InfoContext(ctx, "bet deleted", slog.String("bet_id", betID))
	return nil
}

// push delivers a notification best-effort; failure is logged and swallowed.
func (s *BetService) push(ctx context.Context, n notify.Notification) {
	if s.pusher == nil {
		return
	}
	if err := s.pusher.Notify(ctx, n); err != nil {
		s.logger.WarnContext(ctx, "push notification failed",
			slog.String("title", n.Title),
			slog.String("error", err.Error()),
		)
	}
}
