package stub

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"sanee/messenger/internal/models"
)

func (s *Server) getMe(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[currentUser(c)]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) getUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) listServices(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	services := s.services[currentUser(c)]
	if services == nil {
		services = []models.GigService{}
	}
	c.JSON(http.StatusOK, gin.H{"data": services})
}

func (s *Server) listConversations(c *gin.Context) {
	uid := currentUser(c)
	s.mu.Lock()
	defer s.mu.Unlock()

	latest := map[int64]models.Message{}
	for _, m := range s.messages {
		var peer int64
		switch {
		case m.SenderID == uid:
			peer = m.ReceiverID
		case m.ReceiverID == uid:
			peer = m.SenderID
		default:
			continue
		}
		if prev, ok := latest[peer]; !ok || m.ID > prev.ID {
			latest[peer] = m
		}
	}

	summaries := []models.ConversationSummary{}
	for peer, m := range latest {
		user, ok := s.users[peer]
		if !ok {
			continue
		}
		preview := m.DisplayBody()
		if m.Attachment != "" && !m.IsDeleted {
			preview = "Attachment"
		}
		summaries = append(summaries, models.ConversationSummary{
			User:        user,
			LastMessage: preview,
			LastTime:    m.CreatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].LastTime.After(summaries[j].LastTime) })
	c.JSON(http.StatusOK, gin.H{"data": summaries})
}

func (s *Server) listMessages(c *gin.Context) {
	uid := currentUser(c)
	peer, err := strconv.ParseInt(c.Param("peer"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid peer ID"})
		return
	}
	after, _ := strconv.ParseInt(c.DefaultQuery("after", "0"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var msgs []models.Message
	for _, m := range s.messages {
		if !between(m, uid, peer) {
			continue
		}
		if m.ID <= after {
			continue
		}
		msgs = append(msgs, m)
	}
	// Initial page: the most recent `limit` messages, still ascending.
	if after == 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	if after > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	// Opening/paging a thread marks it read server-side.
	delete(s.unread[uid], peer)
	c.JSON(http.StatusOK, gin.H{"data": msgs})
}

func (s *Server) sendMessage(c *gin.Context) {
	uid := currentUser(c)
	peer, err := strconv.ParseInt(c.Param("peer"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid peer ID"})
		return
	}

	body := c.PostForm("body")
	var attachment string
	if file, err := c.FormFile("file"); err == nil && file != nil {
		attachment = "/uploads/" + file.Filename
	}
	if body == "" && attachment == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message must have text or a file"})
		return
	}

	var meta *models.OrderMeta
	if raw := c.PostForm("order"); raw != "" {
		meta = &models.OrderMeta{}
		if err := json.Unmarshal([]byte(raw), meta); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order metadata"})
			return
		}
	}

	s.mu.Lock()
	msg := s.insertMessageLocked(models.Message{
		SenderID:   uid,
		ReceiverID: peer,
		Body:       body,
		Attachment: attachment,
		OrderMeta:  meta,
	})
	s.mu.Unlock()
	c.JSON(http.StatusOK, msg)
}

func (s *Server) deleteMessage(c *gin.Context) {
	uid := currentUser(c)
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message ID"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID != id {
			continue
		}
		if s.messages[i].SenderID != uid {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only the author can delete a message"})
			return
		}
		s.messages[i].IsDeleted = true
		s.messages[i].Body = models.DeletedPlaceholder
		s.messages[i].Attachment = ""
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
}

func (s *Server) getUnread(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	unread := s.unread[currentUser(c)]
	if unread == nil {
		unread = models.UnreadMap{}
	}
	c.JSON(http.StatusOK, unread)
}

func (s *Server) notificationCount(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"count": s.notifCounts[currentUser(c)]})
}

func between(m models.Message, a, b int64) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}
