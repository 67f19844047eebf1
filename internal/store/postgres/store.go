package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tejeshkinariwala/tightentrade/internal/domain"
)

// querier is the subset of pgx operations shared by *pgxpool.Pool and
// pgx.Tx, so the same store code runs inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements domain.Store on PostgreSQL. The zero value is not usable;
// construct with NewStore.
type Store struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
}

// NewStore creates a Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: pool}
}

// Bets returns the bet store bound to the current querier.
func (s *Store) Bets() domain.BetStore { return &BetStore{q: s.q} }

// Users returns the user store bound to the current querier.
func (s *Store) Users() domain.UserStore { return &UserStore{q: s.q} }

// Subscriptions returns the push-subscription store bound to the current
// querier.
func (s *Store) Subscriptions() domain.SubscriptionStore { return &SubscriptionStore{q: s.q} }

// InTx runs fn inside a single transaction. The Store passed to fn executes
// every operation on that transaction, so a read-validate-write sequence is
// atomic and concurrent mutations of the same bet serialize on the row lock.
// Calling InTx on a Store that is already transactional reuses the open
// transaction.
func (s *Store) InTx(ctx context.Context, fn func(domain.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}

	txStore := &Store{pool: s.pool, q: tx, inTx: true}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit tx: %w", err)
	}
	return nil
}
