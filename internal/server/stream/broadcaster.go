package stream

import (
	"context"
	"log/slog"

	"github.com/tejeshkinariwala/tightentrade/internal/domain"
)

// BusBroadcaster publishes a refresh envelope to the signal bus so every
// hub instance, local or not, relays it to its clients.
type BusBroadcaster struct {
	bus    domain.SignalBus
	logger *slog.Logger
}

// NewBusBroadcaster creates a broadcaster backed by the given signal bus.
func NewBusBroadcaster(bus domain.SignalBus, logger *slog.Logger) *BusBroadcaster {
	return &BusBroadcaster{
		bus:    bus,
		logger: logger.With(slog.String("component", "broadcaster")),
	}
}

// NotifyAll signals every connected client to re-fetch. Failures are logged
// and swallowed; a missed refresh heals on the next one.
func (b *BusBroadcaster) NotifyAll(ctx context.Context) {
	if err := b.bus.Publish(ctx, ChannelBets, RefreshPayload); err != nil {
		b.logger.WarnContext(ctx, "refresh publish failed", slog.String("error", err.Error()))
	}
}
