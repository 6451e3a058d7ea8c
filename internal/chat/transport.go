package chat

import (
	"context"
	"time"

	"go.uber.org/zap"

	"sanee/messenger/internal/api"
	"sanee/messenger/internal/logger"
	"sanee/messenger/internal/models"
)

// Transport keeps one open conversation in sync until its context is
// cancelled. Exactly one transport runs per open conversation; the interval
// or connection handle it owns is started and stopped only by the syncer.
type Transport interface {
	Run(ctx context.Context, peerID int64, sink TransportSink)
}

// TransportSink is the delivery surface a running transport uses. The syncer
// hands each transport a generation-scoped sink, so late deliveries from a
// closed conversation are dropped instead of contaminating the next one.
type TransportSink interface {
	// Deliver merges newly received messages into the store.
	Deliver(msgs []models.Message)
	// SetConnected flips the connection indicator.
	SetConnected(connected bool)
	// Watermark is the highest message id already synced.
	Watermark() int64
}

// PollTransport fetches messages newer than the watermark at a fixed cadence.
// Failures flip the connection indicator and the next tick retries; there is
// deliberately no backoff.
type PollTransport struct {
	API      api.IMessagesAPI
	Interval time.Duration
	PageSize int
}

func (t *PollTransport) Run(ctx context.Context, peerID int64, sink TransportSink) {
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msgs, err := t.API.FetchMessages(ctx, peerID, sink.Watermark(), t.PageSize)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.L.Debug("poll failed", zap.Int64("peer", peerID), zap.Error(err))
				sink.SetConnected(false)
				continue
			}
			sink.SetConnected(true)
			if len(msgs) > 0 {
				sink.Deliver(msgs)
			}
		}
	}
}
