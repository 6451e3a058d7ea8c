package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"sanee/messenger/internal/apperrors"
)

// State is the durable client-side state: the auth token plus user-tunable
// settings. It mirrors what the web client keeps in browser storage.
type State struct {
	Token                string  `json:"token"`
	Language             string  `json:"language"`
	SoundVolume          float64 `json:"sound_volume"`
	NotificationsGranted bool    `json:"notifications_granted"`
}

// Store is the single accessor for process-wide session state. All reads and
// writes go through it; ad hoc file reads elsewhere are a bug.
type Store struct {
	mu    sync.RWMutex
	path  string
	state State
}

// DefaultPath returns the session file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sanee", "session.json"), nil
}

// Init loads session state from the given file. A missing file yields an
// empty (logged-out) session rather than an error.
func Init(path string) (*Store, error) {
	s := &Store{path: path, state: State{Language: "en", SoundVolume: 0.5}}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, err
	}
	return s, nil
}

// Token returns the bearer token, or an UNAUTHENTICATED error if the session
// has no token or the token's exp claim has passed. The signature is not
// verified here; only the server can do that.
func (s *Store) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Token == "" {
		return "", apperrors.Unauthenticated("not logged in")
	}
	if expired(s.state.Token) {
		return "", apperrors.Unauthenticated("session expired")
	}
	return s.state.Token, nil
}

// SetToken stores a new bearer token and persists the session.
func (s *Store) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Token = token
	return s.persistLocked()
}

// Language returns the configured UI language.
func (s *Store) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Language
}

// SoundVolume returns the notification sound volume in [0,1].
func (s *Store) SoundVolume() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.SoundVolume
}

// NotificationsGranted reports whether the user has explicitly allowed
// notifications. The client never flips this on by itself.
func (s *Store) NotificationsGranted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.NotificationsGranted
}

// GrantNotifications records an explicit user opt-in (or opt-out).
func (s *Store) GrantNotifications(granted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.NotificationsGranted = granted
	return s.persistLocked()
}

// SetPreferences updates language and sound volume together.
func (s *Store) SetPreferences(language string, soundVolume float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Language = language
	s.state.SoundVolume = soundVolume
	return s.persistLocked()
}

// Clear wipes the session on logout and removes the backing file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{Language: s.state.Language, SoundVolume: s.state.SoundVolume}
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Store) persistLocked() error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(&s.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// expired inspects the token's exp claim without verifying the signature.
// Tokens without an exp claim are treated as live.
func expired(token string) bool {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		// Opaque (non-JWT) tokens are passed through untouched.
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(time.Now())
}
