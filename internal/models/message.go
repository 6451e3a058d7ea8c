package models

import (
	"strings"
	"time"
)

// MessageShape classifies how a message should be rendered. It is derived
// from content and flags at render time, never stored.
type MessageShape string

const (
	ShapeText       MessageShape = "text"
	ShapeNote       MessageShape = "note"
	ShapeAttachment MessageShape = "attachment"
	ShapeOrder      MessageShape = "order"
)

// DeletedPlaceholder replaces the body of soft-deleted messages.
const DeletedPlaceholder = "This message was deleted"

// NoteLabel delimits an embedded note section inside a plain text body.
const NoteLabel = "Note: "

// Message is a single chat message as returned by the API. IDs are
// server-assigned and monotonically increasing within a conversation.
type Message struct {
	ID         int64      `json:"id"`
	SenderID   int64      `json:"sender_id"`
	ReceiverID int64      `json:"receiver_id"`
	Body       string     `json:"body"`
	Attachment string     `json:"attachment,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	IsDeleted  bool       `json:"is_deleted"`
	OrderMeta  *OrderMeta `json:"order,omitempty"`
}

// Shape classifies the message for rendering. Order detection prefers the
// structured OrderMeta field; parsing the templated body is kept only as a
// compatibility shim for messages sent before OrderMeta existed.
func (m *Message) Shape() MessageShape {
	if m.OrderMeta != nil {
		return ShapeOrder
	}
	if _, ok := ParseOrderBody(m.Body); ok {
		return ShapeOrder
	}
	if m.Attachment != "" {
		return ShapeAttachment
	}
	if strings.Contains(m.Body, "\n"+NoteLabel) {
		return ShapeNote
	}
	return ShapeText
}

// DisplayBody returns the text to render, honouring the soft-delete flag.
func (m *Message) DisplayBody() string {
	if m.IsDeleted {
		return DeletedPlaceholder
	}
	return m.Body
}

// Note extracts the embedded note section, if any.
func (m *Message) Note() string {
	idx := strings.Index(m.Body, "\n"+NoteLabel)
	if idx < 0 {
		return ""
	}
	note := m.Body[idx+1+len(NoteLabel):]
	if end := strings.Index(note, "\n"); end >= 0 {
		note = note[:end]
	}
	return strings.TrimSpace(note)
}

// Order returns the effective order metadata: the structured field when
// present, otherwise whatever the legacy body template yields.
func (m *Message) Order() *OrderMeta {
	if m.OrderMeta != nil {
		return m.OrderMeta
	}
	if meta, ok := ParseOrderBody(m.Body); ok {
		return meta
	}
	return nil
}
