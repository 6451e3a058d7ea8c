// Package stub is an in-memory stand-in for the Sanee marketplace backend.
// It implements every REST operation the client consumes, with just enough
// business logic (unread counts, order expiry, soft delete) to exercise the
// client end to end without a real server.
package stub

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"sanee/messenger/internal/models"
)

type order struct {
	ID        int64
	SellerID  int64
	BuyerID   int64
	ServiceID int64
	Amount    float64
	Note      string
	Status    models.OrderStatus
	ExpiresAt time.Time
}

// Server holds the in-memory state behind the stub API.
type Server struct {
	mu            sync.Mutex
	users         map[int64]models.User
	tokens        map[string]int64
	services      map[int64][]models.GigService
	messages      []models.Message
	orders        map[int64]*order
	unread        map[int64]models.UnreadMap // receiver -> sender -> count
	notifCounts   map[int64]int
	nextMessageID int64
	nextOrderID   int64

	// Now is swappable so tests can age orders past their expiry.
	Now func() time.Time
}

// NewServer creates an empty stub backend.
func NewServer() *Server {
	return &Server{
		users:       make(map[int64]models.User),
		tokens:      make(map[string]int64),
		services:    make(map[int64][]models.GigService),
		orders:      make(map[int64]*order),
		unread:      make(map[int64]models.UnreadMap),
		notifCounts: make(map[int64]int),
		Now:         time.Now,
	}
}

// AddUser registers a user and the bearer token that authenticates as them.
func (s *Server) AddUser(u models.User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	s.tokens[token] = u.ID
}

// AddService registers one of a seller's services.
func (s *Server) AddService(sellerID int64, svc models.GigService) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[sellerID] = append(s.services[sellerID], svc)
}

// SetNotificationCount sets the badge count returned for a user.
func (s *Server) SetNotificationCount(userID int64, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifCounts[userID] = count
}

// InsertMessage appends a message with a server-assigned id, bumping the
// receiver's unread count. Used by handlers and directly by tests.
func (s *Server) InsertMessage(m models.Message) models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertMessageLocked(m)
}

func (s *Server) insertMessageLocked(m models.Message) models.Message {
	s.nextMessageID++
	m.ID = s.nextMessageID
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.Now()
	}
	s.messages = append(s.messages, m)
	if s.unread[m.ReceiverID] == nil {
		s.unread[m.ReceiverID] = models.UnreadMap{}
	}
	s.unread[m.ReceiverID][m.SenderID]++
	return m
}

// Router builds the gin handler tree.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	v1 := r.Group("/v1", s.authRequired)
	{
		v1.GET("/me", s.getMe)
		v1.GET("/me/services", s.listServices)
		v1.GET("/users/:id", s.getUser)
		v1.GET("/chat/conversations", s.listConversations)
		v1.GET("/chat/messages/:peer", s.listMessages)
		v1.POST("/chat/messages/:peer", s.sendMessage)
		v1.DELETE("/chat/messages/:id", s.deleteMessage)
		v1.GET("/chat/unread", s.getUnread)
		v1.GET("/chat/ws", s.chatWS)
		v1.GET("/notifications/unread-count", s.notificationCount)
		v1.POST("/orders", s.createOrder)
		v1.POST("/orders/:id/accept", s.acceptOrder)
		v1.POST("/orders/:id/reject", s.rejectOrder)
	}
	return r
}

const currentUserKey = "stub.currentUser"

// authRequired resolves the bearer token to a user id.
func (s *Server) authRequired(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" || token == header {
		c.AbortWithStatusJSON(401, gin.H{"error": "missing bearer token"})
		return
	}
	s.mu.Lock()
	userID, ok := s.tokens[token]
	s.mu.Unlock()
	if !ok {
		c.AbortWithStatusJSON(401, gin.H{"error": "invalid token"})
		return
	}
	c.Set(currentUserKey, userID)
	c.Next()
}

func currentUser(c *gin.Context) int64 {
	return c.MustGet(currentUserKey).(int64)
}
