package api

import (
	"context"
	"encoding/json"
	"fmt"

	"sanee/messenger/internal/models"
)

// IOrdersAPI defines the custom-order operations the negotiation flow consumes.
type IOrdersAPI interface {
	ListServices(ctx context.Context) ([]models.GigService, error)
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreatedOrder, error)
	AcceptOrder(ctx context.Context, orderID int64) (*OrderDecision, error)
	RejectOrder(ctx context.Context, orderID int64) error
}

// CreateOrderRequest is the payload for creating a custom order.
type CreateOrderRequest struct {
	ServiceID    int64   `json:"service_id" validate:"required,gt=0"`
	BuyerID      int64   `json:"buyer_id" validate:"required,gt=0"`
	Amount       float64 `json:"amount" validate:"required,gt=0"`
	ExpiryChoice string  `json:"expiry_choice" validate:"required"`
	Note         string  `json:"note" validate:"max=500"`
}

// CreatedOrder is the server's response to order creation.
type CreatedOrder struct {
	OrderID      int64  `json:"order_id"`
	ServiceTitle string `json:"service_title"`
}

// OrderDecision carries the status flags returned by the accept endpoint.
// Precedence when mapping to a status: expired > approved > rejected.
type OrderDecision struct {
	IsApproved bool `json:"is_approved"`
	IsExpired  bool `json:"is_expired"`
	IsRejected bool `json:"is_rejected"`
}

// Status folds the decision flags into a single order status.
func (d *OrderDecision) Status() models.OrderStatus {
	switch {
	case d.IsExpired:
		return models.OrderExpired
	case d.IsApproved:
		return models.OrderAccepted
	case d.IsRejected:
		return models.OrderRejected
	default:
		return models.OrderPending
	}
}

// ListServices returns the current seller's services for the order form.
func (c *Client) ListServices(ctx context.Context) ([]models.GigService, error) {
	var envelope struct {
		Data []models.GigService `json:"data"`
	}
	if err := c.getJSON(ctx, "/v1/me/services", &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// CreateOrder creates a custom order; the returned order id is embedded in
// the custom-order message the seller then sends.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreatedOrder, error) {
	var out CreatedOrder
	if err := c.postJSON(ctx, "/v1/orders", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AcceptOrder asks the server to accept a pending order. Business-rule
// rejections ("already been accepted", "expired") surface as
// FAILED_PRECONDITION errors carrying the server message.
func (c *Client) AcceptOrder(ctx context.Context, orderID int64) (*OrderDecision, error) {
	var out OrderDecision
	if err := c.postJSON(ctx, fmt.Sprintf("/v1/orders/%d/accept", orderID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RejectOrder declines a pending order.
func (c *Client) RejectOrder(ctx context.Context, orderID int64) error {
	return c.postJSON(ctx, fmt.Sprintf("/v1/orders/%d/reject", orderID), nil, nil)
}

func encodeOrderField(meta *models.OrderMeta) string {
	data, _ := json.Marshal(meta)
	return string(data)
}
