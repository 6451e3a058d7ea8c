package notify

import (
	"time"

	"go.uber.org/zap"

	"sanee/messenger/internal/logger"
	"sanee/messenger/internal/models"
)

// Handle controls a shown notification.
type Handle interface {
	Dismiss()
}

// Notifier presents a platform notification. onActivate is invoked when the
// user interacts with it (the app refocuses itself in response).
type Notifier interface {
	Show(title, body string, onActivate func()) (Handle, error)
}

// Player emits the audio cue. Implementations must fail silently rather than
// crash the sync path.
type Player interface {
	Play(volume float64) error
}

// Settings supplies the user-controlled guards. Notifications are only shown
// when the user has previously granted them explicitly; the bridge never
// requests permission itself.
type Settings interface {
	NotificationsGranted() bool
	SoundVolume() float64
}

// FocusState reports whether the app is in foreground focus. A focused app
// gets no notifications.
type FocusState interface {
	Focused() bool
}

// Bridge alerts the user to newly synced foreign messages while the app is
// in the background. It is wired exclusively to the sync engine's new-message
// path; sends and initial loads never trigger it.
type Bridge struct {
	notifier Notifier
	sounds   Player
	settings Settings
	focus    FocusState
	resolve  func(userID int64) string
	refocus  func()
	timeout  time.Duration
	schedule func(d time.Duration, f func())
}

// NewBridge assembles the notification bridge. resolve maps a sender id to a
// display name; refocus brings the app to the foreground on activation.
func NewBridge(notifier Notifier, sounds Player, settings Settings, focus FocusState, resolve func(int64) string, refocus func(), timeout time.Duration) *Bridge {
	return &Bridge{
		notifier: notifier,
		sounds:   sounds,
		settings: settings,
		focus:    focus,
		resolve:  resolve,
		refocus:  refocus,
		timeout:  timeout,
		schedule: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

// HandleMessage is the sync engine's OnMessage hook.
func (b *Bridge) HandleMessage(msg models.Message) {
	if !b.settings.NotificationsGranted() {
		return
	}
	if b.focus.Focused() {
		return
	}

	title := b.resolve(msg.SenderID)
	if title == "" {
		title = "New message"
	}

	handle, err := b.notifier.Show(title, Body(msg), b.refocus)
	if err != nil {
		logger.L.Debug("notification failed", zap.Error(err))
	} else if handle != nil {
		b.schedule(b.timeout, handle.Dismiss)
	}

	if err := b.sounds.Play(b.settings.SoundVolume()); err != nil {
		// Audio is best-effort; a missing device must not break sync.
		logger.L.Debug("notification sound failed", zap.Error(err))
	}
}

// Body derives the notification text from the message classification.
func Body(msg models.Message) string {
	switch msg.Shape() {
	case models.ShapeOrder:
		return "sent you a custom order"
	case models.ShapeAttachment:
		return "sent an attachment"
	default:
		return msg.DisplayBody()
	}
}
