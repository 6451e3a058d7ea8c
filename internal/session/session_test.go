package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sanee/messenger/internal/apperrors"
)

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{}
	if !expiresAt.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestInit_MissingFileYieldsLoggedOutSession(t *testing.T) {
	s, err := Init(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)

	_, err = s.Token()
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUnauthenticated, apperrors.CodeOf(err))
	assert.Equal(t, "en", s.Language())
	assert.Equal(t, 0.5, s.SoundVolume())
	assert.False(t, s.NotificationsGranted())
}

func TestStore_SetTokenPersistsAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s, err := Init(path)
	require.NoError(t, err)
	require.NoError(t, s.SetToken("token-seller"))

	reloaded, err := Init(path)
	require.NoError(t, err)
	token, err := reloaded.Token()
	require.NoError(t, err)
	assert.Equal(t, "token-seller", token)
}

func TestStore_OpaqueTokensAreNeverTreatedAsExpired(t *testing.T) {
	s, err := Init(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	require.NoError(t, s.SetToken("not-a-jwt"))

	token, err := s.Token()
	require.NoError(t, err)
	assert.Equal(t, "not-a-jwt", token)
}

func TestStore_ExpiredJWTRejected(t *testing.T) {
	s, err := Init(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	require.NoError(t, s.SetToken(signedToken(t, time.Now().Add(-time.Minute))))

	_, err = s.Token()
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUnauthenticated, apperrors.CodeOf(err))
}

func TestStore_LiveJWTAccepted(t *testing.T) {
	s, err := Init(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)

	live := signedToken(t, time.Now().Add(time.Hour))
	require.NoError(t, s.SetToken(live))
	token, err := s.Token()
	require.NoError(t, err)
	assert.Equal(t, live, token)

	// No exp claim means the server decides.
	require.NoError(t, s.SetToken(signedToken(t, time.Time{})))
	_, err = s.Token()
	require.NoError(t, err)
}

func TestStore_ClearKeepsPreferencesDropsToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s, err := Init(path)
	require.NoError(t, err)
	require.NoError(t, s.SetPreferences("ar", 0.8))
	require.NoError(t, s.GrantNotifications(true))
	require.NoError(t, s.SetToken("token-seller"))

	require.NoError(t, s.Clear())
	_, err = s.Token()
	require.Error(t, err)
	assert.Equal(t, "ar", s.Language())
	assert.Equal(t, 0.8, s.SoundVolume())
	assert.False(t, s.NotificationsGranted(), "opt-in does not survive logout")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "backing file removed on logout")
}

func TestStore_GrantNotificationsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s, err := Init(path)
	require.NoError(t, err)

	require.NoError(t, s.GrantNotifications(true))
	reloaded, err := Init(path)
	require.NoError(t, err)
	assert.True(t, reloaded.NotificationsGranted())

	require.NoError(t, reloaded.GrantNotifications(false))
	assert.False(t, reloaded.NotificationsGranted())
}
