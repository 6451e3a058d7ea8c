package chat

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"sanee/messenger/internal/api"
	"sanee/messenger/internal/logger"
	"sanee/messenger/internal/models"
)

// MessageHandler observes messages newly merged by the sync engine that were
// authored by someone other than the current user (notification bridge).
type MessageHandler func(msg models.Message)

// UpdateHandler observes any change to the store driven by sync (view refresh,
// scroll to bottom).
type UpdateHandler func()

// Syncer keeps the Store consistent with the server for the currently open
// conversation. Opening a conversation resets the store and watermark, runs
// the initial bulk load, then starts the transport; switching conversations
// cancels the previous transport before starting the next, so a dangling
// interval can never outlive its conversation.
type Syncer struct {
	api           api.IMessagesAPI
	store         *Store
	currentUserID int64
	pageSize      int
	newTransport  func() Transport

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	peerID     int64
	connected  bool
	onMessage  []MessageHandler
	onUpdate   []UpdateHandler
}

// NewSyncer creates a sync engine over the given store. newTransport is
// invoked once per opened conversation.
func NewSyncer(messagesAPI api.IMessagesAPI, store *Store, currentUserID int64, pageSize int, newTransport func() Transport) *Syncer {
	return &Syncer{
		api:           messagesAPI,
		store:         store,
		currentUserID: currentUserID,
		pageSize:      pageSize,
		newTransport:  newTransport,
	}
}

// OnMessage registers a handler for foreign messages arriving through sync.
func (s *Syncer) OnMessage(h MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMessage = append(s.onMessage, h)
}

// OnUpdate registers a handler fired after any sync-driven store change.
func (s *Syncer) OnUpdate(h UpdateHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = append(s.onUpdate, h)
}

// Open switches to the given conversation: cancels any running transport,
// resets the store, performs the initial load and starts a fresh transport.
// An initial-load failure leaves the (empty) store alone, marks the engine
// disconnected and returns the error; the caller may simply retry Open.
func (s *Syncer) Open(ctx context.Context, peerID int64) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	gen := s.generation
	s.peerID = peerID
	s.store.Reset()
	s.mu.Unlock()

	msgs, err := s.api.FetchMessages(ctx, peerID, 0, s.pageSize)

	s.mu.Lock()
	if s.generation != gen {
		// A later Open or Close superseded this load; drop the response.
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.connected = false
		s.mu.Unlock()
		return err
	}
	s.connected = true
	s.store.Replace(msgs)
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	transport := s.newTransport()
	updates := append([]UpdateHandler(nil), s.onUpdate...)
	s.mu.Unlock()

	for _, h := range updates {
		h()
	}
	logger.L.Debug("conversation opened", zap.Int64("peer", peerID), zap.Int("loaded", len(msgs)))
	go transport.Run(runCtx, peerID, &genSink{s: s, gen: gen})
	return nil
}

// Close stops syncing. Safe to call when nothing is open.
func (s *Syncer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	s.peerID = 0
	s.connected = false
}

// Connected reports the last known connection state.
func (s *Syncer) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// PeerID returns the counterpart of the open conversation, 0 if none.
func (s *Syncer) PeerID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerID
}

// genSink scopes transport deliveries to the generation that started the
// transport. Every mutation re-checks the generation under the syncer lock.
type genSink struct {
	s   *Syncer
	gen uint64
}

func (g *genSink) Deliver(msgs []models.Message) {
	g.s.mu.Lock()
	if g.s.generation != g.gen {
		g.s.mu.Unlock()
		return
	}
	added := g.s.store.Merge(msgs)
	handlers := append([]MessageHandler(nil), g.s.onMessage...)
	updates := append([]UpdateHandler(nil), g.s.onUpdate...)
	currentUserID := g.s.currentUserID
	g.s.mu.Unlock()

	if len(added) == 0 {
		return
	}
	for _, m := range added {
		if m.SenderID == currentUserID {
			continue
		}
		for _, h := range handlers {
			h(m)
		}
	}
	for _, h := range updates {
		h()
	}
}

func (g *genSink) SetConnected(connected bool) {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	if g.s.generation != g.gen {
		return
	}
	g.s.connected = connected
}

func (g *genSink) Watermark() int64 {
	return g.s.store.Watermark()
}
