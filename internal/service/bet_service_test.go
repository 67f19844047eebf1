package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejeshkinariwala/tightentrade/internal/domain"
	"github.com/tejeshkinariwala/tightentrade/internal/notify"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory domain.Store for service tests. InTx runs the
// callback directly; the tests exercise ordering and validation, not
// isolation.
type memStore struct {
	mu     sync.Mutex
	nextID int
	bets   map[string]domain.Bet
	quotes map[string][]domain.QuoteUpdate
	trades map[string][]domain.Trade
	users  map[string]domain.User
	subs   map[string]domain.PushSubscription
}

func newMemStore() *memStore {
	return &memStore{
		bets:   make(map[string]domain.Bet),
		quotes: make(map[string][]domain.QuoteUpdate),
		trades: make(map[string][]domain.Trade),
		users:  make(map[string]domain.User),
		subs:   make(map[string]domain.PushSubscription),
	}
}

func (m *memStore) Bets() domain.BetStore { return &memBets{m} }

func (m *memStore) Users() domain.UserStore { return &memUsers{m} }

func (m *memStore) Subscriptions() domain.SubscriptionStore { return &memSubs{m} }

func (m *memStore) InTx(_ context.Context, fn func(domain.Store) error) error {
	return fn(m)
}

type memBets struct{ s *memStore }

func (b *memBets) Create(_ context.Context, bet domain.Bet) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	b.s.bets[bet.ID] = bet
	return nil
}

func (b *memBets) GetByID(_ context.Context, id string) (domain.Bet, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	bet, ok := b.s.bets[id]
	if !ok {
		return domain.Bet{}, domain.ErrNotFound
	}
	return bet, nil
}

func (b *memBets) GetByIDForUpdate(ctx context.Context, id string) (domain.Bet, error) {
	return b.GetByID(ctx, id)
}

func (b *memBets) GetDetail(ctx context.Context, id string) (domain.BetDetail, error) {
	bet, err := b.GetByID(ctx, id)
	if err != nil {
		return domain.BetDetail{}, err
	}

	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	detail := domain.BetDetail{Bet: bet}
	for _, u := range b.s.users {
		if u.ID == bet.CreatorID {
			detail.Creator = u
		}
	}
	detail.Trades = append(detail.Trades, b.s.trades[id]...)
	detail.QuoteUpdates = append(detail.QuoteUpdates, b.s.quotes[id]...)
	return detail, nil
}

func (b *memBets) List(ctx context.Context) ([]domain.BetDetail, error) {
	b.s.mu.Lock()
	ids := make([]string, 0, len(b.s.bets))
	for id := range b.s.bets {
		ids = append(ids, id)
	}
	b.s.mu.Unlock()

	var details []domain.BetDetail
	for _, id := range ids {
		d, err := b.GetDetail(ctx, id)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, nil
}

func (b *memBets) SetQuote(_ context.Context, id string, side domain.Side, value float64) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	bet, ok := b.s.bets[id]
	if !ok {
		return domain.ErrNotFound
	}
	if side == domain.SideBid {
		bet.CurrentBid = value
	} else {
		bet.CurrentAsk = value
	}
	b.s.bets[id] = bet
	return nil
}

func (b *memBets) SetNotional(_ context.Context, id string, value float64) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	bet, ok := b.s.bets[id]
	if !ok {
		return domain.ErrNotFound
	}
	bet.Notional = value
	b.s.bets[id] = bet
	return nil
}

func (b *memBets) MarkTraded(_ context.Context, id string) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	bet, ok := b.s.bets[id]
	if !ok {
		return domain.ErrNotFound
	}
	bet.IsTraded = true
	b.s.bets[id] = bet
	return nil
}

func (b *memBets) MarkSettled(_ context.Context, id string, result bool) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	bet, ok := b.s.bets[id]
	if !ok {
		return domain.ErrNotFound
	}
	bet.IsSettled = true
	bet.EventResult = &result
	b.s.bets[id] = bet
	return nil
}

func (b *memBets) Delete(_ context.Context, id string) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if _, ok := b.s.bets[id]; !ok {
		return domain.ErrNotFound
	}
	delete(b.s.trades, id)
	delete(b.s.quotes, id)
	delete(b.s.bets, id)
	return nil
}

func (b *memBets) AppendQuoteUpdate(_ context.Context, update domain.QuoteUpdate) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	for _, u := range b.s.users {
		if u.ID == update.UpdaterID {
			update.UpdaterUsername = u.Username
		}
	}
	b.s.quotes[update.BetID] = append(b.s.quotes[update.BetID], update)
	return nil
}

func (b *memBets) ListQuoteUpdates(_ context.Context, betID string) ([]domain.QuoteUpdate, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	return append([]domain.QuoteUpdate(nil), b.s.quotes[betID]...), nil
}

func (b *memBets) CreateTrade(_ context.Context, trade domain.Trade) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	b.s.trades[trade.BetID] = append(b.s.trades[trade.BetID], trade)
	return nil
}

func (b *memBets) ListTrades(_ context.Context, betID string) ([]domain.Trade, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	return append([]domain.Trade(nil), b.s.trades[betID]...), nil
}

type memUsers struct{ s *memStore }

func (u *memUsers) GetOrCreate(_ context.Context, username string) (domain.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if user, ok := u.s.users[username]; ok {
		return user, nil
	}
	u.s.nextID++
	user := domain.User{
		ID:        fmt.Sprintf("user-%d", u.s.nextID),
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}
	u.s.users[username] = user
	return user, nil
}

func (u *memUsers) GetByUsername(_ context.Context, username string) (domain.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if user, ok := u.s.users[username]; ok {
		return user, nil
	}
	return domain.User{}, domain.ErrNotFound
}

type memSubs struct{ s *memStore }

func (m *memSubs) Upsert(_ context.Context, sub domain.PushSubscription) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.subs[sub.Endpoint] = sub
	return nil
}

func (m *memSubs) List(_ context.Context) ([]domain.PushSubscription, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var subs []domain.PushSubscription
	for _, sub := range m.s.subs {
		subs = append(subs, sub)
	}
	return subs, nil
}

func (m *memSubs) DeleteByEndpoint(_ context.Context, endpoint string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	delete(m.s.subs, endpoint)
	return nil
}

// fakeBroadcaster counts change notifications.
type fakeBroadcaster struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeBroadcaster) NotifyAll(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
}

func (f *fakeBroadcaster) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakePusher records push notifications.
type fakePusher struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (f *fakePusher) Notify(_ context.Context, n notify.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakePusher) titles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, n := range f.sent {
		out = append(out, n.Title)
	}
	return out
}

func newTestService() (*BetService, *memStore, *fakeBroadcaster, *fakePusher) {
	store := newMemStore()
	broadcaster := &fakeBroadcaster{}
	pusher := &fakePusher{}
	svc := NewBetService(store, broadcaster, pusher, testLogger())
	return svc, store, broadcaster, pusher
}

func TestBetService_Create(t *testing.T) {
	svc, store, broadcaster, pusher := newTestService()
	ctx := context.Background()

	detail, err := svc.Create(ctx, "Rain tomorrow", 100, "alice")
	require.NoError(t, err)

	assert.Equal(t, "Rain tomorrow", detail.EventName)
	assert.Equal(t, 0.0, detail.CurrentBid)
	assert.Equal(t, 100.0, detail.CurrentAsk)
	assert.False(t, detail.IsTraded)
	assert.False(t, detail.IsSettled)
	assert.Nil(t, detail.EventResult)
	assert.Equal(t, "Alice", detail.Creator.Username)
	assert.Len(t, detail.QuoteUpdates, 2)

	updates, err := store.Bets().ListQuoteUpdates(ctx, detail.ID)
	require.NoError(t, err)
	q := domain.DeriveCurrent(detail.Bet, updates)
	assert.Equal(t, 0.0, q.Bid)
	assert.Equal(t, 100.0, q.Ask)

	assert.Equal(t, 1, broadcaster.count())
	assert.Equal(t, []string{"New Bet Created"}, pusher.titles())
}

func TestBetService_CreateInvalidInput(t *testing.T) {
	svc, _, broadcaster, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "Rain tomorrow", 0, "alice")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Create(ctx, "Rain tomorrow", -5, "alice")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Create(ctx, "", 100, "alice")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Create(ctx, "Rain tomorrow", 100, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Equal(t, 0, broadcaster.count())
}

func TestBetService_UpdateQuote(t *testing.T) {
	svc, _, _, pusher := newTestService()
	ctx := context.Background()

	detail, err := svc.Create(ctx, "Rain tomorrow", 100, "alice")
	require.NoError(t, err)

	// Spread 100: increment clamps to 5.
	updated, err := svc.UpdateQuote(ctx, detail.ID, domain.SideBid, 30, "bob")
	require.NoError(t, err)
	assert.Equal(t, 30.0, updated.CurrentBid)
	assert.Len(t, updated.QuoteUpdates, 3)

	_, err = svc.UpdateQuote(ctx, detail.ID, domain.SideBid, 31, "bob")
	assert.ErrorIs(t, err, domain.ErrInvalidQuote)

	updated, err = svc.UpdateQuote(ctx, detail.ID, domain.SideAsk, 60, "carol")
	require.NoError(t, err)
	assert.Equal(t, 60.0, updated.CurrentAsk)

	assert.Contains(t, pusher.titles(), "Price Update")
}

func TestBetService_UpdateQuoteNotFound(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.UpdateQuote(context.Background(), "missing", domain.SideBid, 10, "bob")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBetService_UpdateQuoteOnTradedBet(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	detail, err := svc.Create(ctx, "Rain tomorrow", 100, "alice")
	require.NoError(t, err)
	_, err = svc.UpdateQuote(ctx, detail.ID, domain.SideAsk, 60, "alice")
	require.NoError(t, err)
	_, err = svc.RequestTrade(ctx, detail.ID, domain.DirectionBuy, "bob")
	require.NoError(t, err)

	_, err = svc.UpdateQuote(ctx, detail.ID, domain.SideBid, 20, "carol")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestBetService_UpdateNotional(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	detail, err := svc.Create(ctx, "Rain tomorrow", 100, "alice")
	require.NoError(t, err)

	updated, err := svc.UpdateNotional(ctx, detail.ID, 250)
	require.NoError(t, err)
	assert.Equal(t, 250.0, updated.Notional)

	_, err = svc.UpdateNotional(ctx, detail.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.UpdateNotional(ctx, "missing", 50)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBetService_UpdateNotionalAllowedAfterTrade(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	detail, err := svc.Create(ctx, "Rain tomorrow", 100, "alice")
	require.NoError(t, err)
	_, err = svc.UpdateQuote(ctx, detail.ID, domain.SideAsk, 60, "alice")
	require.NoError(t, err)
	_, err = svc.RequestTrade(ctx, detail.ID, domain.DirectionBuy, "bob")
	require.NoError(t, err)

	updated, err := svc.UpdateNotional(ctx, detail.ID, 500)
	require.NoError(t, err)
	assert.Equal(t, 500.0, updated.Notional)
}

func TestBetService_RequestTrade(t *testing.T) {
	svc, _, _, pusher := newTestService()
	ctx := context.Background()

	detail, err := svc.Create(ctx, "Rain tomorrow", 100, "alice")
	require.NoError(t, err)
	_, err = svc.UpdateQuote(ctx, detail.ID, domain.SideAsk, 60, "alice")
	require.NoError(t, err)

	result, err := svc.RequestTrade(ctx, detail.ID, domain.DirectionBuy, "bob")
	require.NoError(t, err)

	assert.Equal(t, 60.0, result.Trade.Price)
	assert.Equal(t, "Bob", result.Trade.Buyer)
	assert.Equal(t, "Alice", result.Trade.Seller)
	assert.Equal(t, "Alice", result.Trade.Maker)
	assert.Equal(t, "Bob", result.Trade.Taker)
	assert.True(t, result.Bet.IsTraded)
	assert.Contains(t, result.Description, "Bob bought from Alice at 60")
	assert.Contains(t, pusher.titles(), "Trade Executed")
}

func TestBetService_SingleTradePerBet(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	detail, err := svc.Create(ctx, "Rain tomorrow", 100, "alice")
	require.NoError(t, err)
	_, err = svc.UpdateQuote(ctx, detail.ID, domain.SideAsk, 60, "alice")
	require.NoError(t, err)

	_, err = svc.RequestTrade(ctx, detail.ID, domain.DirectionBuy, "bob")
	require.NoError(t, err)

	for _, dir := range []domain.Direction{domain.DirectionBuy, domain.DirectionSell} {
		_, err = svc.RequestTrade(ctx, detail.ID, dir, "carol")
		assert.ErrorIs(t, err, domain.ErrAlreadyTraded)
	}
}

func TestBetService_Settle(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	detail, err := svc.Create(ctx, "Rain tomorrow", 100, "alice")
	require.NoError(t, err)
	_, err = svc.UpdateQuote(ctx, detail.ID, domain.SideAsk, 30, "alice")
	require.NoError(t, err)
	_, err = svc.RequestTrade(ctx, detail.ID, domain.DirectionBuy, "bob")
	require.NoError(t, err)

	settled, settlement, err := svc.Settle(ctx, detail.ID, true)
	require.NoError(t, err)

	assert.True(t, settled.IsSettled)
	require.NotNil(t, settled.EventResult)
	assert.True(t, *settled.EventResult)
	assert.InDelta(t, 70.0, settlement.Amount, 1e-9)
	assert.Equal(t, "Alice", settlement.OwedBy)
	assert.Equal(t, "Bob", settlement.OwedTo)
}

func TestBetService_SettleUntraded(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	detail, err := svc.Create(ctx, "Rain tomorrow", 100, "alice")
	require.NoError(t, err)

	_, _, err = svc.Settle(ctx, detail.ID, true)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestBetService_SettleTwice(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	detail, err := svc.Create(ctx, "Rain tomorrow", 100, "alice")
	require.NoError(t, err)
	_, err = svc.UpdateQuote(ctx, detail.ID, domain.SideAsk, 30, "alice")
	require.NoError(t, err)
	_, err = svc.RequestTrade(ctx, detail.ID, domain.DirectionBuy, "bob")
	require.NoError(t, err)
	_, _, err = svc.Settle(ctx, detail.ID, false)
	require.NoError(t, err)

	_, _, err = svc.Settle(ctx, detail.ID, true)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestBetService_DeleteCascades(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	detail, err := svc.Create(ctx, "Rain tomorrow", 100, "alice")
	require.NoError(t, err)
	_, err = svc.UpdateQuote(ctx, detail.ID, domain.SideAsk, 60, "alice")
	require.NoError(t, err)
	_, err = svc.RequestTrade(ctx, detail.ID, domain.DirectionBuy, "bob")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, detail.ID))

	_, err = store.Bets().GetByID(ctx, detail.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	quotes, err := store.Bets().ListQuoteUpdates(ctx, detail.ID)
	require.NoError(t, err)
	assert.Empty(t, quotes)

	trades, err := store.Bets().ListTrades(ctx, detail.ID)
	require.NoError(t, err)
	assert.Empty(t, trades)

	assert.ErrorIs(t, svc.Delete(ctx, detail.ID), domain.ErrNotFound)
}

func TestPushService_Subscribe(t *testing.T) {
	store := newMemStore()
	pusher := &fakePusher{}
	svc := NewPushService(store.Subscriptions(), pusher, testLogger())
	ctx := context.Background()

	err := svc.Subscribe(ctx, "https://push.example/abc", "p256dh-key", "auth-secret")
	require.NoError(t, err)

	subs, err := store.Subscriptions().List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "https://push.example/abc", subs[0].Endpoint)

	assert.ErrorIs(t, svc.Subscribe(ctx, "", "k", "a"), domain.ErrInvalidInput)

	require.NoError(t, svc.SendTest(ctx))
	assert.Equal(t, []string{"Test Notification"}, pusher.titles())
}
