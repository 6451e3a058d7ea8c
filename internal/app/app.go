// Package app wires the chat core into a usable client: one messages view,
// one conversation sidebar, toasts, and the notification bridge.
package app

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"go.uber.org/zap"

	"sanee/messenger/internal/api"
	"sanee/messenger/internal/chat"
	"sanee/messenger/internal/config"
	"sanee/messenger/internal/logger"
	"sanee/messenger/internal/models"
	"sanee/messenger/internal/notify"
	"sanee/messenger/internal/session"
)

// App owns the composed client state for one logged-in user.
type App struct {
	cfg      *config.Config
	sess     *session.Store
	client   *api.Client
	me       *models.User
	store    *chat.Store
	syncer   *chat.Syncer
	composer *chat.Composer
	orders   *chat.OrderFlow
	convs    *chat.ConversationList
	bridge   *notify.Bridge

	out     io.Writer
	focused atomic.Bool
}

// New authenticates against the backend and assembles the client. An
// UNAUTHENTICATED error means the caller should send the user to login.
func New(ctx context.Context, cfg *config.Config, sess *session.Store, out io.Writer) (*App, error) {
	client := api.NewClient(cfg, sess)
	me, err := client.Me(ctx)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:    cfg,
		sess:   sess,
		client: client,
		me:     me,
		store:  chat.NewStore(),
		out:    out,
	}
	a.focused.Store(true)

	newTransport := func() chat.Transport {
		if cfg.SyncTransport == "ws" {
			return &chat.WSTransport{BaseURL: cfg.APIBaseURL, Tokens: sess, Retry: cfg.PollInterval}
		}
		return &chat.PollTransport{API: client, Interval: cfg.PollInterval, PageSize: cfg.MessagePageSize}
	}

	a.syncer = chat.NewSyncer(client, a.store, me.ID, cfg.MessagePageSize, newTransport)
	a.composer = chat.NewComposer(client, a.store, me.ID, cfg.DeleteWindow, cfg.ImageMaxDimension)
	a.orders = chat.NewOrderFlow(client, client, a.store, a, a.goToCheckout, cfg.CheckoutDelay, me.ID)
	a.convs = chat.NewConversationList(client, client, client, cfg.UnreadPollInterval)
	a.bridge = notify.NewBridge(
		&notify.TerminalNotifier{W: out},
		&notify.BellPlayer{W: out},
		sess,
		a,
		a.convs.Name,
		func() { a.SetFocused(true) },
		cfg.NotificationTimeout,
	)
	a.syncer.OnMessage(a.bridge.HandleMessage)
	return a, nil
}

// Start refreshes the sidebar and begins the unread poll.
func (a *App) Start(ctx context.Context) error {
	if err := a.convs.Refresh(ctx); err != nil {
		return err
	}
	a.convs.Start(ctx)
	return nil
}

// Stop tears down all polling loops.
func (a *App) Stop() {
	a.syncer.Close()
	a.convs.Stop()
}

// Me returns the current user.
func (a *App) Me() *models.User { return a.me }

// Store exposes the message store for rendering.
func (a *App) Store() *chat.Store { return a.store }

// Syncer exposes the sync engine (connection state, open conversation).
func (a *App) Syncer() *chat.Syncer { return a.syncer }

// Composer exposes the outgoing-message composer.
func (a *App) Composer() *chat.Composer { return a.composer }

// Orders exposes the order-negotiation flow.
func (a *App) Orders() *chat.OrderFlow { return a.orders }

// Conversations exposes the sidebar model.
func (a *App) Conversations() *chat.ConversationList { return a.convs }

// OpenConversation switches the messages view to the given counterpart and
// optimistically clears its unread flag.
func (a *App) OpenConversation(ctx context.Context, peerID int64) error {
	a.convs.MarkRead(peerID)
	return a.syncer.Open(ctx, peerID)
}

// SetFocused records foreground focus; the notification bridge consults it.
func (a *App) SetFocused(focused bool) {
	a.focused.Store(focused)
}

// Focused implements notify.FocusState.
func (a *App) Focused() bool {
	return a.focused.Load()
}

// Info implements chat.Toaster.
func (a *App) Info(msg string) {
	fmt.Fprintf(a.out, "[info] %s\n", msg)
}

// Error implements chat.Toaster.
func (a *App) Error(msg string) {
	fmt.Fprintf(a.out, "[error] %s\n", msg)
}

// Logout clears the session; the caller exits to the login flow.
func (a *App) Logout() error {
	a.Stop()
	return a.sess.Clear()
}

func (a *App) goToCheckout(p chat.CheckoutParams) {
	logger.L.Info("navigating to checkout", zap.Int64("order", p.OrderID))
	fmt.Fprintf(a.out, "\n--> checkout: order #%d, amount $%.2f", p.OrderID, p.Amount)
	if p.Note != "" {
		fmt.Fprintf(a.out, " (note: %s)", p.Note)
	}
	fmt.Fprintln(a.out)
}
