package models

import "time"

// ConversationSummary is a sidebar entry: the counterpart user plus a
// preview of the latest message. Entries are derived server-side and
// recomputed on each fetch, never created locally.
type ConversationSummary struct {
	User        User      `json:"user"`
	LastMessage string    `json:"last_message"`
	LastTime    time.Time `json:"last_time"`
}

// UnreadMap maps counterpart user ID to the count of unread messages. It is
// a client-side cache of the global unread endpoint, not authoritative state.
type UnreadMap map[int64]int
