package chat

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"sanee/messenger/internal/api"
	"sanee/messenger/internal/logger"
	"sanee/messenger/internal/models"
)

// WSTransport is the push-based alternative to polling: a websocket stream of
// messages for the open conversation, fed through the exact same merge path.
// Reconnects use the same fixed cadence as polling.
type WSTransport struct {
	BaseURL string // http(s) base URL; scheme is rewritten to ws(s)
	Tokens  api.TokenSource
	Dialer  *websocket.Dialer
	Retry   time.Duration
}

func (t *WSTransport) Run(ctx context.Context, peerID int64, sink TransportSink) {
	dialer := t.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	retry := t.Retry
	if retry <= 0 {
		retry = 4 * time.Second
	}
	for {
		if err := t.stream(ctx, dialer, peerID, sink); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.L.Debug("push stream dropped", zap.Int64("peer", peerID), zap.Error(err))
			sink.SetConnected(false)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(retry):
		}
	}
}

func (t *WSTransport) stream(ctx context.Context, dialer *websocket.Dialer, peerID int64, sink TransportSink) error {
	token, err := t.Tokens.Token()
	if err != nil {
		return err
	}
	u := wsURL(t.BaseURL) + fmt.Sprintf("/v1/chat/ws?peer=%d&after=%d", peerID, sink.Watermark())
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := dialer.DialContext(ctx, u, header)
	if err != nil {
		return err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Unblock ReadJSON when the conversation is closed or switched.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	sink.SetConnected(true)
	for {
		var msg models.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		sink.Deliver([]models.Message{msg})
	}
}

func wsURL(base string) string {
	base = strings.TrimRight(base, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return base
	}
}
