package chat_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sanee/messenger/internal/apperrors"
	"sanee/messenger/internal/chat"
	"sanee/messenger/internal/models"
)

func newTestComposer(api *MockMessagesAPI) (*chat.Composer, *chat.Store) {
	store := chat.NewStore()
	return chat.NewComposer(api, store, currentUserID, 5*time.Minute, 2048), store
}

func TestComposer_SendTextAppendsAndClears(t *testing.T) {
	mockAPI := new(MockMessagesAPI)
	composer, store := newTestComposer(mockAPI)

	sent := msg(11, currentUserID, peerA, "hello there")
	mockAPI.On("SendText", mock.Anything, peerA, "hello there").Return(&sent, nil).Once()

	composer.SetDraft("hello there")
	got, err := composer.Send(context.Background(), peerA)
	require.NoError(t, err)
	assert.Equal(t, int64(11), got.ID)

	// Acknowledged message is in the store, composer is empty again.
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, int64(11), store.Watermark())
	assert.Empty(t, composer.Draft())
	mockAPI.AssertExpectations(t)
}

func TestComposer_EmptySendNeverReachesNetwork(t *testing.T) {
	mockAPI := new(MockMessagesAPI)
	composer, store := newTestComposer(mockAPI)

	_, err := composer.Send(context.Background(), peerA)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidArgument, apperrors.CodeOf(err))
	assert.Equal(t, 0, store.Len())
	mockAPI.AssertNotCalled(t, "SendText")
	mockAPI.AssertNotCalled(t, "SendFile")
}

func TestComposer_TextAndFileTogetherRejected(t *testing.T) {
	mockAPI := new(MockMessagesAPI)
	composer, _ := newTestComposer(mockAPI)

	composer.SetDraft("hi")
	composer.Attach("/tmp/pic.png")
	_, err := composer.Send(context.Background(), peerA)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidArgument, apperrors.CodeOf(err))
	// Inputs survive the rejection.
	assert.Equal(t, "hi", composer.Draft())
	assert.Equal(t, "/tmp/pic.png", composer.Attachment())
}

func TestComposer_FailedSendKeepsDraft(t *testing.T) {
	mockAPI := new(MockMessagesAPI)
	composer, store := newTestComposer(mockAPI)

	mockAPI.On("SendText", mock.Anything, peerA, "retry me").
		Return(nil, apperrors.Unavailable("network error", assert.AnError)).Once()

	composer.SetDraft("retry me")
	_, err := composer.Send(context.Background(), peerA)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUnavailable, apperrors.CodeOf(err))

	// Draft intact for retry, nothing appended locally.
	assert.Equal(t, "retry me", composer.Draft())
	assert.Equal(t, 0, store.Len())

	sent := msg(12, currentUserID, peerA, "retry me")
	mockAPI.On("SendText", mock.Anything, peerA, "retry me").Return(&sent, nil).Once()
	_, err = composer.Send(context.Background(), peerA)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestComposer_CanDeleteWindow(t *testing.T) {
	mockAPI := new(MockMessagesAPI)
	composer, _ := newTestComposer(mockAPI)

	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	composer.SetNowForTest(func() time.Time { return base })

	mine := msg(1, currentUserID, peerA, "mine")
	mine.CreatedAt = base.Add(-4 * time.Minute)
	assert.True(t, composer.CanDelete(mine))

	// Exactly at the boundary still deletable, one second past is not.
	mine.CreatedAt = base.Add(-5 * time.Minute)
	assert.True(t, composer.CanDelete(mine))
	mine.CreatedAt = base.Add(-5*time.Minute - time.Second)
	assert.False(t, composer.CanDelete(mine))

	theirs := msg(2, peerA, currentUserID, "theirs")
	theirs.CreatedAt = base
	assert.False(t, composer.CanDelete(theirs))

	deleted := msg(3, currentUserID, peerA, "gone")
	deleted.CreatedAt = base
	deleted.IsDeleted = true
	assert.False(t, composer.CanDelete(deleted))
}

func TestComposer_DeleteSoftDeletesLocally(t *testing.T) {
	mockAPI := new(MockMessagesAPI)
	composer, store := newTestComposer(mockAPI)

	mine := msg(5, currentUserID, peerA, "oops")
	store.Replace([]models.Message{mine})
	mockAPI.On("DeleteMessage", mock.Anything, int64(5)).Return(nil).Once()

	require.NoError(t, composer.Delete(context.Background(), 5))
	got, _ := store.Get(5)
	assert.True(t, got.IsDeleted)
	assert.Equal(t, models.DeletedPlaceholder, got.Body)
}

func TestComposer_DeleteForeignMessageNeverIssued(t *testing.T) {
	mockAPI := new(MockMessagesAPI)
	composer, store := newTestComposer(mockAPI)

	theirs := msg(6, peerA, currentUserID, "not yours")
	store.Replace([]models.Message{theirs})

	err := composer.Delete(context.Background(), 6)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeFailedPrecondition, apperrors.CodeOf(err))
	got, _ := store.Get(6)
	assert.False(t, got.IsDeleted)
	mockAPI.AssertNotCalled(t, "DeleteMessage")
}

func TestComposer_DeleteOutsideWindowRejected(t *testing.T) {
	mockAPI := new(MockMessagesAPI)
	composer, store := newTestComposer(mockAPI)

	base := time.Now()
	composer.SetNowForTest(func() time.Time { return base })

	old := msg(7, currentUserID, peerA, "too old")
	old.CreatedAt = base.Add(-6 * time.Minute)
	store.Replace([]models.Message{old})

	err := composer.Delete(context.Background(), 7)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeFailedPrecondition, apperrors.CodeOf(err))
	mockAPI.AssertNotCalled(t, "DeleteMessage")
}

func TestComposer_DeleteServerFailureKeepsMessage(t *testing.T) {
	mockAPI := new(MockMessagesAPI)
	composer, store := newTestComposer(mockAPI)

	mine := msg(8, currentUserID, peerA, "still here")
	store.Replace([]models.Message{mine})
	mockAPI.On("DeleteMessage", mock.Anything, int64(8)).
		Return(apperrors.Unavailable("network error", assert.AnError)).Once()

	err := composer.Delete(context.Background(), 8)
	require.Error(t, err)
	got, _ := store.Get(8)
	assert.False(t, got.IsDeleted)
	assert.Equal(t, "still here", got.Body)
}
