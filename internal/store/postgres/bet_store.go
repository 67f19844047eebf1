package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tejeshkinariwala/tightentrade/internal/domain"
)

// BetStore implements domain.BetStore using PostgreSQL.
type BetStore struct {
	q querier
}

const betSelectCols = `id, event_name, notional, current_bid, current_ask,
	is_traded, is_settled, event_result, creator_id, created_at`

func scanBet(row pgx.Row) (domain.Bet, error) {
	var b domain.Bet
	err := row.Scan(
		&b.ID, &b.EventName, &b.Notional, &b.CurrentBid, &b.CurrentAsk,
		&b.IsTraded, &b.IsSettled, &b.EventResult, &b.CreatorID, &b.CreatedAt,
	)
	return b, err
}

// Create inserts a new bet.
func (s *BetStore) Create(ctx context.Context, bet domain.Bet) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO bets (
			id, event_name, notional, current_bid, current_ask,
			is_traded, is_settled, event_result, creator_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		bet.ID, bet.EventName, bet.Notional, bet.CurrentBid, bet.CurrentAsk,
		bet.IsTraded, bet.IsSettled, bet.EventResult, bet.CreatorID, bet.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create bet %s: %w", bet.ID, err)
	}
	return nil
}

// GetByID retrieves a single bet by ID.
func (s *BetStore) GetByID(ctx context.Context, id string) (domain.Bet, error) {
	b, err := scanBet(s.q.QueryRow(ctx,
		`SELECT `+betSelectCols+` FROM bets WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Bet{}, domain.ErrNotFound
		}
		return domain.Bet{}, fmt.Errorf("postgres: get bet %s: %w", id, err)
	}
	return b, nil
}

// GetByIDForUpdate retrieves a bet and locks its row until the enclosing
// transaction commits.
func (s *BetStore) GetByIDForUpdate(ctx context.Context, id string) (domain.Bet, error) {
	b, err := scanBet(s.q.QueryRow(ctx,
		`SELECT `+betSelectCols+` FROM bets WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Bet{}, domain.ErrNotFound
		}
		return domain.Bet{}, fmt.Errorf("postgres: lock bet %s: %w", id, err)
	}
	return b, nil
}

// GetDetail retrieves a bet with its creator, trades, and quote history.
func (s *BetStore) GetDetail(ctx context.Context, id string) (domain.BetDetail, error) {
	bet, err := s.GetByID(ctx, id)
	if err != nil {
		return domain.BetDetail{}, err
	}
	return s.loadDetail(ctx, bet)
}

func (s *BetStore) loadDetail(ctx context.Context, bet domain.Bet) (domain.BetDetail, error) {
	detail := domain.BetDetail{Bet: bet}

	err := s.q.QueryRow(ctx,
		`SELECT id, username, created_at FROM users WHERE id = $1`, bet.CreatorID,
	).Scan(&detail.Creator.ID, &detail.Creator.Username, &detail.Creator.CreatedAt)
	if err != nil {
		return domain.BetDetail{}, fmt.Errorf("postgres: load bet creator %s: %w", bet.ID, err)
	}

	if detail.Trades, err = s.ListTrades(ctx, bet.ID); err != nil {
		return domain.BetDetail{}, err
	}
	if detail.QuoteUpdates, err = s.ListQuoteUpdates(ctx, bet.ID); err != nil {
		return domain.BetDetail{}, err
	}
	return detail, nil
}

// List returns all bets newest-first with creators, trades, and quote
// history attached.
func (s *BetStore) List(ctx context.Context) ([]domain.BetDetail, error) {
	rows, err := s.q.Query(ctx,
		`SELECT `+betSelectCols+` FROM bets ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list bets: %w", err)
	}
	defer rows.Close()

	var bets []domain.Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan bet: %w", err)
		}
		bets = append(bets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list bets: %w", err)
	}
	rows.Close()

	details := make([]domain.BetDetail, 0, len(bets))
	for _, b := range bets {
		d, err := s.loadDetail(ctx, b)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, nil
}

// SetQuote updates the denormalized current bid or ask on the bet row.
func (s *BetStore) SetQuote(ctx context.Context, id string, side domain.Side, value float64) error {
	col := "current_bid"
	if side == domain.SideAsk {
		col = "current_ask"
	}

	tag, err := s.q.Exec(ctx,
		`UPDATE bets SET `+col+` = $1 WHERE id = $2`, value, id)
	if err != nil {
		return fmt.Errorf("postgres: set %s on bet %s: %w", col, id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetNotional updates the bet's notional.
func (s *BetStore) SetNotional(ctx context.Context, id string, value float64) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE bets SET notional = $1 WHERE id = $2`, value, id)
	if err != nil {
		return fmt.Errorf("postgres: set notional on bet %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkTraded flips the bet into the traded state.
func (s *BetStore) MarkTraded(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE bets SET is_traded = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: mark bet %s traded: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkSettled flips the bet into the settled state and records the outcome.
func (s *BetStore) MarkSettled(ctx context.Context, id string, result bool) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE bets SET is_settled = TRUE, event_result = $1 WHERE id = $2`, result, id)
	if err != nil {
		return fmt.Errorf("postgres: mark bet %s settled: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a bet's trades and quote updates, then the bet itself.
// Dependents go first to keep foreign keys satisfied; the caller wraps this
// in a transaction via Store.InTx.
func (s *BetStore) Delete(ctx context.Context, id string) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM trades WHERE bet_id = $1`, id); err != nil {
		return fmt.Errorf("postgres: delete trades for bet %s: %w", id, err)
	}
	if _, err := s.q.Exec(ctx, `DELETE FROM quote_updates WHERE bet_id = $1`, id); err != nil {
		return fmt.Errorf("postgres: delete quote updates for bet %s: %w", id, err)
	}

	tag, err := s.q.Exec(ctx, `DELETE FROM bets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: delete bet %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AppendQuoteUpdate inserts one row into the quote ledger.
func (s *BetStore) AppendQuoteUpdate(ctx context.Context, update domain.QuoteUpdate) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO quote_updates (id, bet_id, updater_id, new_bid, new_ask, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		update.ID, update.BetID, update.UpdaterID, update.NewBid, update.NewAsk, update.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: append quote update for bet %s: %w", update.BetID, err)
	}
	return nil
}

// ListQuoteUpdates returns a bet's quote ledger newest-first with updater
// usernames resolved.
func (s *BetStore) ListQuoteUpdates(ctx context.Context, betID string) ([]domain.QuoteUpdate, error) {
	rows, err := s.q.Query(ctx, `
		SELECT q.id, q.bet_id, q.updater_id, u.username, q.new_bid, q.new_ask, q.created_at
		FROM quote_updates q
		JOIN users u ON u.id = q.updater_id
		WHERE q.bet_id = $1
		ORDER BY q.created_at DESC`, betID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list quote updates for bet %s: %w", betID, err)
	}
	defer rows.Close()

	var updates []domain.QuoteUpdate
	for rows.Next() {
		var u domain.QuoteUpdate
		if err := rows.Scan(
			&u.ID, &u.BetID, &u.UpdaterID, &u.UpdaterUsername,
			&u.NewBid, &u.NewAsk, &u.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan quote update: %w", err)
		}
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list quote updates for bet %s: %w", betID, err)
	}
	return updates, nil
}

// CreateTrade inserts the trade that closes a bet.
func (s *BetStore) CreateTrade(ctx context.Context, trade domain.Trade) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO trades (id, bet_id, buyer_id, seller_id, maker_id, taker_id, price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		trade.ID, trade.BetID, trade.BuyerID, trade.SellerID,
		trade.MakerID, trade.TakerID, trade.Price, trade.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create trade for bet %s: %w", trade.BetID, err)
	}
	return nil
}

// ListTrades returns a bet's trades oldest-first with participant usernames
// resolved.
func (s *BetStore) ListTrades(ctx context.Context, betID string) ([]domain.Trade, error) {
	rows, err := s.q.Query(ctx, `
		SELECT t.id, t.bet_id,
			t.buyer_id, t.seller_id, t.maker_id, t.taker_id,
			ub.username, us.username, um.username, ut.username,
			t.price, t.created_at
		FROM trades t
		JOIN users ub ON ub.id = t.buyer_id
		JOIN users us ON us.id = t.seller_id
		JOIN users um ON um.id = t.maker_id
		JOIN users ut ON ut.id = t.taker_id
		WHERE t.bet_id = $1
		ORDER BY t.created_at ASC`, betID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades for bet %s: %w", betID, err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		if err := rows.Scan(
			&t.ID, &t.BetID,
			&t.BuyerID, &t.SellerID, &t.MakerID, &t.TakerID,
			&t.Buyer, &t.Seller, &t.Maker, &t.Taker,
			&t.Price, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list trades for bet %s: %w", betID, err)
	}
	return trades, nil
}
