package chat

import (
	"context"
	"sync"
	"time"

	"sanee/messenger/internal/api"
	"sanee/messenger/internal/apperrors"
	"sanee/messenger/internal/attachments"
	"sanee/messenger/internal/models"
)

// Composer mediates outgoing sends and deletes for the open conversation.
// The draft survives a failed send so the user can retry without retyping.
type Composer struct {
	api           api.IMessagesAPI
	store         *Store
	currentUserID int64
	deleteWindow  time.Duration
	imageMaxDim   int
	now           func() time.Time

	mu             sync.Mutex
	draft          string
	attachmentPath string
}

// NewComposer creates a composer bound to the given store.
func NewComposer(messagesAPI api.IMessagesAPI, store *Store, currentUserID int64, deleteWindow time.Duration, imageMaxDim int) *Composer {
	return &Composer{
		api:           messagesAPI,
		store:         store,
		currentUserID: currentUserID,
		deleteWindow:  deleteWindow,
		imageMaxDim:   imageMaxDim,
		now:           time.Now,
	}
}

// SetDraft replaces the composer text input.
func (c *Composer) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = text
}

// Draft returns the current text input.
func (c *Composer) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Attach selects a file for the next send, replacing any previous selection.
func (c *Composer) Attach(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attachmentPath = path
}

// Attachment returns the currently selected file path, if any.
func (c *Composer) Attachment() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attachmentPath
}

// Send submits the draft or the selected attachment; exactly one must be
// present, and an empty submission never reaches the network. On success the
// server-acknowledged message is appended (deduplicated, watermark advanced)
// and the composer is cleared. On failure the input stays intact.
func (c *Composer) Send(ctx context.Context, peerID int64) (*models.Message, error) {
	c.mu.Lock()
	draft := c.draft
	attachment := c.attachmentPath
	c.mu.Unlock()

	if draft == "" && attachment == "" {
		return nil, apperrors.InvalidArg("message is empty")
	}
	if draft != "" && attachment != "" {
		return nil, apperrors.InvalidArg("send either text or a file, not both")
	}

	var msg *models.Message
	var err error
	if attachment != "" {
		filename, reader, openErr := attachments.Open(attachment, c.imageMaxDim)
		if openErr != nil {
			return nil, apperrors.Wrap(apperrors.CodeInvalidArgument, "cannot read attachment", openErr)
		}
		msg, err = c.api.SendFile(ctx, peerID, filename, reader)
	} else {
		msg, err = c.api.SendText(ctx, peerID, draft)
	}
	if err != nil {
		return nil, err
	}

	c.store.Append(*msg)
	c.mu.Lock()
	c.draft = ""
	c.attachmentPath = ""
	c.mu.Unlock()
	return msg, nil
}

// CanDelete reports whether the delete control should be offered: only the
// author may delete, and only within the delete window of the send time.
func (c *Composer) CanDelete(msg models.Message) bool {
	if msg.IsDeleted || msg.SenderID != c.currentUserID {
		return false
	}
	return c.now().Sub(msg.CreatedAt) <= c.deleteWindow
}

// Delete soft-deletes one of the current user's recent messages. The entry is
// kept in the list with its body replaced by the placeholder.
func (c *Composer) Delete(ctx context.Context, messageID int64) error {
	msg, ok := c.store.Get(messageID)
	if !ok {
		return apperrors.NotFound("message not found")
	}
	if !c.CanDelete(msg) {
		return apperrors.FailedPrecondition("message can no longer be deleted")
	}
	if err := c.api.DeleteMessage(ctx, messageID); err != nil {
		return err
	}
	c.store.MarkDeleted(messageID)
	return nil
}
