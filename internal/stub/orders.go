package stub

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sanee/messenger/internal/models"
)

type createOrderInput struct {
	ServiceID    int64   `json:"service_id" binding:"required"`
	BuyerID      int64   `json:"buyer_id" binding:"required"`
	Amount       float64 `json:"amount" binding:"required,gt=0"`
	ExpiryChoice string  `json:"expiry_choice" binding:"required"`
	Note         string  `json:"note"`
}

func (s *Server) createOrder(c *gin.Context) {
	uid := currentUser(c)
	var in createOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order payload"})
		return
	}
	ttl, ok := models.ExpiryDuration(in.ExpiryChoice)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown expiry choice"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var title string
	for _, svc := range s.services[uid] {
		if svc.ID == in.ServiceID {
			title = svc.Title
			break
		}
	}
	if title == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Service not found"})
		return
	}
	s.nextOrderID++
	s.orders[s.nextOrderID] = &order{
		ID:        s.nextOrderID,
		SellerID:  uid,
		BuyerID:   in.BuyerID,
		ServiceID: in.ServiceID,
		Amount:    in.Amount,
		Note:      in.Note,
		Status:    models.OrderPending,
		ExpiresAt: s.Now().Add(ttl),
	}
	c.JSON(http.StatusOK, gin.H{"order_id": s.nextOrderID, "service_title": title})
}

func (s *Server) acceptOrder(c *gin.Context) {
	uid := currentUser(c)
	o, ok := s.findOrder(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.BuyerID != uid {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the buyer can accept this order"})
		return
	}
	switch o.Status {
	case models.OrderAccepted:
		c.JSON(http.StatusBadRequest, gin.H{"error": "This order has already been accepted"})
		return
	case models.OrderRejected:
		c.JSON(http.StatusBadRequest, gin.H{"error": "This order was rejected"})
		return
	case models.OrderExpired:
		c.JSON(http.StatusBadRequest, gin.H{"error": "This order has expired"})
		return
	}
	if s.Now().After(o.ExpiresAt) {
		o.Status = models.OrderExpired
		c.JSON(http.StatusBadRequest, gin.H{"error": "This order has expired"})
		return
	}
	o.Status = models.OrderAccepted
	c.JSON(http.StatusOK, gin.H{"is_approved": true, "is_expired": false, "is_rejected": false})
}

func (s *Server) rejectOrder(c *gin.Context) {
	uid := currentUser(c)
	o, ok := s.findOrder(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.BuyerID != uid {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the buyer can reject this order"})
		return
	}
	if o.Status != models.OrderPending {
		c.JSON(http.StatusBadRequest, gin.H{"error": "This order is no longer pending"})
		return
	}
	o.Status = models.OrderRejected
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) findOrder(c *gin.Context) (*order, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return nil, false
	}
	return o, true
}
