package stub

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"sanee/messenger/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatWS streams new messages for one conversation over a websocket. The stub
// watches its own state on a short tick; good enough for tests and local use.
func (s *Server) chatWS(c *gin.Context) {
	uid := currentUser(c)
	peer, err := strconv.ParseInt(c.Query("peer"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid peer ID"})
		return
	}
	after, _ := strconv.ParseInt(c.DefaultQuery("after", "0"), 10, 64)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// The client never sends application messages; the read loop exists to
	// notice the connection closing while the conversation is quiet.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	lastSent := after
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-gone:
			return
		case <-ticker.C:
			s.mu.Lock()
			var pending []models.Message
			for _, m := range s.messages {
				if m.ID > lastSent && between(m, uid, peer) {
					pending = append(pending, m)
				}
			}
			s.mu.Unlock()
			for _, m := range pending {
				if err := conn.WriteJSON(m); err != nil {
					return
				}
				lastSent = m.ID
			}
		}
	}
}
