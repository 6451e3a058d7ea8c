package chat

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"sanee/messenger/internal/api"
	"sanee/messenger/internal/logger"
	"sanee/messenger/internal/models"
)

// ConversationList maintains the sidebar: counterpart users with previews,
// plus a locally cached unread map refreshed on its own fixed interval,
// independent of the open thread's sync engine.
type ConversationList struct {
	users         api.IUsersAPI
	messages      api.IMessagesAPI
	notifications api.INotificationsAPI
	interval      time.Duration

	mu         sync.Mutex
	summaries  []models.ConversationSummary
	unread     models.UnreadMap
	notifCount int
	cancel     context.CancelFunc
	onUpdate   []func()
}

// NewConversationList creates the sidebar model.
func NewConversationList(users api.IUsersAPI, messages api.IMessagesAPI, notifications api.INotificationsAPI, interval time.Duration) *ConversationList {
	return &ConversationList{
		users:         users,
		messages:      messages,
		notifications: notifications,
		interval:      interval,
		unread:        models.UnreadMap{},
	}
}

// OnUpdate registers a callback fired after each successful refresh.
func (l *ConversationList) OnUpdate(f func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onUpdate = append(l.onUpdate, f)
}

// Refresh fetches the conversation summaries once.
func (l *ConversationList) Refresh(ctx context.Context) error {
	summaries, err := l.users.ListConversations(ctx)
	if err != nil {
		return err
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].LastTime.After(summaries[j].LastTime) })
	l.mu.Lock()
	l.summaries = summaries
	callbacks := make([]func(), len(l.onUpdate))
	copy(callbacks, l.onUpdate)
	l.mu.Unlock()
	for _, f := range callbacks {
		f()
	}
	return nil
}

// Start begins the periodic unread poll. Only one poll loop may run; calling
// Start again restarts it.
func (l *ConversationList) Start(ctx context.Context) {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.mu.Unlock()

	go l.pollUnread(runCtx)
}

// Stop halts the unread poll.
func (l *ConversationList) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

func (l *ConversationList) pollUnread(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			unread, err := l.messages.UnreadMap(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.L.Debug("unread poll failed", zap.Error(err))
				continue
			}
			count := 0
			if l.notifications != nil {
				// Notification badge is a separate subsystem; its failure
				// must not affect the unread map.
				if c, err := l.notifications.UnreadNotificationCount(ctx); err == nil {
					count = c
				}
			}
			l.mu.Lock()
			l.unread = unread
			if l.notifications != nil {
				l.notifCount = count
			}
			callbacks := make([]func(), len(l.onUpdate))
			copy(callbacks, l.onUpdate)
			l.mu.Unlock()
			for _, f := range callbacks {
				f()
			}
		}
	}
}

// Summaries returns the current sidebar entries, most recent first.
func (l *ConversationList) Summaries() []models.ConversationSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.ConversationSummary, len(l.summaries))
	copy(out, l.summaries)
	return out
}

// Unread returns the cached unread count for a counterpart.
func (l *ConversationList) Unread(peerID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unread[peerID]
}

// NotificationCount returns the cached notification badge count.
func (l *ConversationList) NotificationCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.notifCount
}

// MarkRead clears a counterpart's unread flag locally when their thread is
// opened. This is an optimistic client-side cache update, not server state;
// the next poll is free to disagree.
func (l *ConversationList) MarkRead(peerID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.unread, peerID)
}

// Filter returns the summaries whose name, last message or headline contains
// the query (case-insensitive). Filtering never calls the server.
func (l *ConversationList) Filter(query string) []models.ConversationSummary {
	query = strings.ToLower(strings.TrimSpace(query))
	all := l.Summaries()
	if query == "" {
		return all
	}
	var out []models.ConversationSummary
	for _, s := range all {
		if strings.Contains(strings.ToLower(s.User.Name), query) ||
			strings.Contains(strings.ToLower(s.LastMessage), query) ||
			strings.Contains(strings.ToLower(s.User.Headline), query) {
			out = append(out, s)
		}
	}
	return out
}

// Name resolves a counterpart's display name from the cached summaries.
func (l *ConversationList) Name(peerID int64) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.summaries {
		if s.User.ID == peerID {
			return s.User.Name
		}
	}
	return ""
}
