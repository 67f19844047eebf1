package stream

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeBus is an in-process SignalBus: Publish feeds every subscriber.
type fakeBus struct {
	mu        sync.Mutex
	subs      []chan []byte
	published [][]byte
}

func (f *fakeBus) Publish(_ context.Context, _ string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, data)
	for _, ch := range f.subs {
		ch <- data
	}
	return nil
}

func (f *fakeBus) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan []byte, 8)
	f.subs = append(f.subs, ch)
	return ch, nil
}

func TestBusBroadcasterPublishesRefresh(t *testing.T) {
	bus := &fakeBus{}
	b := NewBusBroadcaster(bus, testLogger())

	b.NotifyAll(context.Background())

	require.Len(t, bus.published, 1)
	assert.JSONEq(t, `{"type":"refresh"}`, string(bus.published[0]))
}

func TestSSEDeliversRefresh(t *testing.T) {
	bus := &fakeBus{}
	hub := NewHub(bus, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleSSE))
	defer srv.Close()

	reqCtx, reqCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer reqCancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected", strings.TrimSpace(line))

	// Wait for the hub to register the client before publishing.
	require.Eventually(t, func() bool {
		return hub.clientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	broadcaster := NewBusBroadcaster(bus, testLogger())
	broadcaster.NotifyAll(context.Background())

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: {\"type\":\"refresh\"}") {
			return
		}
	}
}
