package chat

import (
	"sort"
	"sync"

	"sanee/messenger/internal/models"
)

// Store holds the ordered message list for the active conversation. It is
// append-only: entries are deduplicated by id and existing entries are never
// overwritten by sync merges, so local mutations (soft delete, order status)
// survive a poll re-fetching the same id.
type Store struct {
	mu        sync.Mutex
	messages  []models.Message // ascending by id
	index     map[int64]int    // message id -> slice position
	watermark int64
}

// NewStore creates an empty message store.
func NewStore() *Store {
	return &Store{index: make(map[int64]int)}
}

// Reset empties the store and zeroes the watermark. Called on conversation
// switch, before the new conversation's initial load.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.index = make(map[int64]int)
	s.watermark = 0
}

// Replace swaps the store contents wholesale with the given page. Used by the
// initial bulk load. The watermark becomes the maximum id present.
func (s *Store) Replace(msgs []models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = make([]models.Message, 0, len(msgs))
	s.index = make(map[int64]int, len(msgs))
	s.watermark = 0
	for _, m := range msgs {
		if _, seen := s.index[m.ID]; seen {
			continue
		}
		s.messages = append(s.messages, m)
		s.index[m.ID] = 0 // positions fixed after sort
	}
	sort.Slice(s.messages, func(i, j int) bool { return s.messages[i].ID < s.messages[j].ID })
	for i, m := range s.messages {
		s.index[m.ID] = i
		if m.ID > s.watermark {
			s.watermark = m.ID
		}
	}
}

// Merge appends messages whose ids are not yet present, keeping ascending id
// order, and advances the watermark. Already-present entries are left
// untouched. It returns the messages that were actually appended, in order.
func (s *Store) Merge(msgs []models.Message) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var added []models.Message
	for _, m := range msgs {
		if _, seen := s.index[m.ID]; seen {
			continue
		}
		added = append(added, m)
	}
	if len(added) == 0 {
		return nil
	}
	sort.Slice(added, func(i, j int) bool { return added[i].ID < added[j].ID })
	for _, m := range added {
		s.insertLocked(m)
	}
	return added
}

// Append adds a single message (typically the server-acknowledged result of a
// send). Returns false if the id was already present.
func (s *Store) Append(m models.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.index[m.ID]; seen {
		return false
	}
	s.insertLocked(m)
	return true
}

func (s *Store) insertLocked(m models.Message) {
	pos := sort.Search(len(s.messages), func(i int) bool { return s.messages[i].ID > m.ID })
	s.messages = append(s.messages, models.Message{})
	copy(s.messages[pos+1:], s.messages[pos:])
	s.messages[pos] = m
	for i := pos; i < len(s.messages); i++ {
		s.index[s.messages[i].ID] = i
	}
	if m.ID > s.watermark {
		s.watermark = m.ID
	}
}

// Messages returns a copy of the current ordered list.
func (s *Store) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Get returns the message with the given id.
func (s *Store) Get(id int64) (models.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, ok := s.index[id]
	if !ok {
		return models.Message{}, false
	}
	return s.messages[pos], true
}

// Len returns the number of stored messages.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Watermark returns the maximum message id seen so far. It never decreases.
func (s *Store) Watermark() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watermark
}

// MarkDeleted flips the soft-delete flag locally. The entry stays in place so
// ordering and layout are preserved.
func (s *Store) MarkDeleted(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, ok := s.index[id]
	if !ok {
		return false
	}
	s.messages[pos].IsDeleted = true
	s.messages[pos].Body = models.DeletedPlaceholder
	s.messages[pos].Attachment = ""
	return true
}

// SetOrderStatus updates the status of the order message carrying orderID.
// Transitions are monotonic: once a status is terminal no further change is
// applied. Returns the resulting status and whether a message was found.
func (s *Store) SetOrderStatus(orderID int64, status models.OrderStatus) (models.OrderStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		meta := s.messages[i].Order()
		if meta == nil || meta.OrderID != orderID {
			continue
		}
		if s.messages[i].OrderMeta == nil {
			// Legacy template-only message: materialize the parsed metadata
			// so the status has somewhere to live.
			s.messages[i].OrderMeta = meta
		}
		current := s.messages[i].OrderMeta.Status
		if current.Terminal() || status == models.OrderPending {
			return current, true
		}
		s.messages[i].OrderMeta.Status = status
		return status, true
	}
	return "", false
}
