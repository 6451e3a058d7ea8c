package chat

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"sanee/messenger/internal/api"
	"sanee/messenger/internal/apperrors"
	"sanee/messenger/internal/models"
)

// Toaster surfaces transient user-visible outcomes. Background failures never
// reach it; only user-initiated actions do.
type Toaster interface {
	Info(msg string)
	Error(msg string)
}

// CheckoutParams is what the checkout view needs when an accepted order
// navigates there.
type CheckoutParams struct {
	OrderID   int64
	ServiceID int64
	Amount    float64
	Note      string
}

// OrderAction says which controls an order message should render for the
// given viewer. Terminal orders degrade to a status-only button.
type OrderAction string

const (
	ActionAcceptReject OrderAction = "accept_reject" // buyer, pending
	ActionAwaiting     OrderAction = "awaiting"      // seller, pending
	ActionStatusOnly   OrderAction = "status_only"   // terminal
)

// OrderFlow drives the custom-order negotiation embedded in chat messages:
// seller proposes, buyer accepts or rejects, and every transition is
// reflected back into the specific message's displayed status.
type OrderFlow struct {
	orders        api.IOrdersAPI
	messages      api.IMessagesAPI
	store         *Store
	toasts        Toaster
	navigate      func(CheckoutParams)
	checkoutDelay time.Duration
	currentUserID int64
	validate      *validator.Validate
	schedule      func(d time.Duration, f func())
}

// NewOrderFlow wires the negotiation flow. navigate is invoked (after a short
// delay) when an accept succeeds; it must be safe to call from a timer.
func NewOrderFlow(orders api.IOrdersAPI, messages api.IMessagesAPI, store *Store, toasts Toaster, navigate func(CheckoutParams), checkoutDelay time.Duration, currentUserID int64) *OrderFlow {
	return &OrderFlow{
		orders:        orders,
		messages:      messages,
		store:         store,
		toasts:        toasts,
		navigate:      navigate,
		checkoutDelay: checkoutDelay,
		currentUserID: currentUserID,
		validate:      validator.New(),
		schedule: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

// Propose creates a custom order and sends it as a custom-order message
// (seller-only action). The message body is the fixed template; the
// structured metadata travels alongside it and is the source of truth.
func (f *OrderFlow) Propose(ctx context.Context, peerID int64, req api.CreateOrderRequest) (*models.Message, error) {
	req.BuyerID = peerID
	canonical, ok := models.CanonicalExpiry(req.ExpiryChoice)
	if !ok {
		return nil, apperrors.InvalidArg("unknown expiry choice: " + req.ExpiryChoice)
	}
	req.ExpiryChoice = canonical
	if err := f.validate.Struct(req); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidArgument, "invalid order", err)
	}

	created, err := f.orders.CreateOrder(ctx, req)
	if err != nil {
		f.toasts.Error(apperrors.MessageOf(err))
		return nil, err
	}

	meta := &models.OrderMeta{
		OrderID:      created.OrderID,
		ServiceID:    req.ServiceID,
		ServiceTitle: created.ServiceTitle,
		Amount:       req.Amount,
		ExpiryChoice: req.ExpiryChoice,
		Note:         req.Note,
		Status:       models.OrderPending,
	}
	msg, err := f.messages.SendOrderMessage(ctx, peerID, models.ComposeOrderBody(meta), meta)
	if err != nil {
		f.toasts.Error(apperrors.MessageOf(err))
		return nil, err
	}
	f.store.Append(*msg)
	return msg, nil
}

// Accept is the buyer-only action on a pending order message. Server
// failures are differentiated by message content: an order that was already
// accepted or has expired still moves the local status so the UI stops
// offering an invalid action.
func (f *OrderFlow) Accept(ctx context.Context, msg models.Message) error {
	meta, err := f.actionable(msg)
	if err != nil {
		return err
	}

	decision, err := f.orders.AcceptOrder(ctx, meta.OrderID)
	if err != nil {
		serverMsg := apperrors.MessageOf(err)
		switch {
		case strings.Contains(strings.ToLower(serverMsg), "already been accepted"):
			f.store.SetOrderStatus(meta.OrderID, models.OrderAccepted)
			f.toasts.Info(serverMsg)
		case strings.Contains(strings.ToLower(serverMsg), "expired"):
			f.store.SetOrderStatus(meta.OrderID, models.OrderExpired)
			f.toasts.Error(serverMsg)
		default:
			f.toasts.Error("Could not accept the order. Please try again.")
		}
		return err
	}

	status := decision.Status()
	f.store.SetOrderStatus(meta.OrderID, status)
	if decision.IsApproved && !decision.IsExpired {
		params := CheckoutParams{
			OrderID:   meta.OrderID,
			ServiceID: meta.ServiceID,
			Amount:    meta.Amount,
			Note:      meta.Note,
		}
		f.schedule(f.checkoutDelay, func() { f.navigate(params) })
	}
	return nil
}

// Reject is the buyer-only counterpart to Accept.
func (f *OrderFlow) Reject(ctx context.Context, msg models.Message) error {
	meta, err := f.actionable(msg)
	if err != nil {
		return err
	}
	if err := f.orders.RejectOrder(ctx, meta.OrderID); err != nil {
		f.toasts.Error(apperrors.MessageOf(err))
		return err
	}
	f.store.SetOrderStatus(meta.OrderID, models.OrderRejected)
	return nil
}

// ActionFor implements the rendering contract: which controls the viewer
// gets for an order message.
func (f *OrderFlow) ActionFor(msg models.Message) OrderAction {
	meta := msg.Order()
	if meta == nil || meta.Status.Terminal() {
		return ActionStatusOnly
	}
	if msg.ReceiverID == f.currentUserID {
		return ActionAcceptReject
	}
	return ActionAwaiting
}

// actionable guards buyer actions: the message must be an order, addressed to
// the current user, and still pending.
func (f *OrderFlow) actionable(msg models.Message) (*models.OrderMeta, error) {
	meta := msg.Order()
	if meta == nil {
		return nil, apperrors.InvalidArg("not an order message")
	}
	if msg.ReceiverID != f.currentUserID {
		return nil, apperrors.FailedPrecondition("only the recipient can act on this order")
	}
	// Prefer the store's view of the status; a prior action may already have
	// moved it off pending.
	if current, found := f.store.Get(msg.ID); found {
		if m := current.Order(); m != nil {
			meta = m
		}
	}
	if meta.Status != models.OrderPending {
		return nil, apperrors.FailedPrecondition("order is no longer pending")
	}
	return meta, nil
}
