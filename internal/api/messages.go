package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"sanee/messenger/internal/apperrors"
	"sanee/messenger/internal/models"
)

// IMessagesAPI defines the message operations the chat core consumes.
type IMessagesAPI interface {
	FetchMessages(ctx context.Context, peerID, afterID int64, limit int) ([]models.Message, error)
	SendText(ctx context.Context, peerID int64, text string) (*models.Message, error)
	SendFile(ctx context.Context, peerID int64, filename string, file io.Reader) (*models.Message, error)
	SendOrderMessage(ctx context.Context, peerID int64, body string, meta *models.OrderMeta) (*models.Message, error)
	DeleteMessage(ctx context.Context, messageID int64) error
	UnreadMap(ctx context.Context) (models.UnreadMap, error)
}

type messagesEnvelope struct {
	Data []models.Message `json:"data"`
}

// FetchMessages returns messages exchanged with peerID. afterID=0 fetches the
// most recent page; afterID>0 fetches only strictly newer messages, which is
// what the sync engine uses for incremental polls.
func (c *Client) FetchMessages(ctx context.Context, peerID, afterID int64, limit int) ([]models.Message, error) {
	values := url.Values{}
	queryInt64(values, "after", afterID)
	if limit > 0 {
		values.Set("limit", fmt.Sprintf("%d", limit))
	}
	path := fmt.Sprintf("/v1/chat/messages/%d", peerID)
	if encoded := values.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var envelope messagesEnvelope
	if err := c.getJSON(ctx, path, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// SendText sends a plain text message. The server-returned message carries
// the assigned id and timestamp.
func (c *Client) SendText(ctx context.Context, peerID int64, text string) (*models.Message, error) {
	return c.sendMultipart(ctx, peerID, text, "", nil, nil)
}

// SendFile uploads a file attachment.
func (c *Client) SendFile(ctx context.Context, peerID int64, filename string, file io.Reader) (*models.Message, error) {
	return c.sendMultipart(ctx, peerID, "", filename, file, nil)
}

// SendOrderMessage sends the templated custom-order body along with its
// structured metadata.
func (c *Client) SendOrderMessage(ctx context.Context, peerID int64, body string, meta *models.OrderMeta) (*models.Message, error) {
	return c.sendMultipart(ctx, peerID, body, "", nil, meta)
}

func (c *Client) sendMultipart(ctx context.Context, peerID int64, text, filename string, file io.Reader, meta *models.OrderMeta) (*models.Message, error) {
	// Outgoing sends are throttled client-side; waits respect the context.
	if err := c.sendLimit.Wait(ctx); err != nil {
		return nil, apperrors.Unavailable("send throttled", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if text != "" {
		if err := writer.WriteField("body", text); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to encode message body", err)
		}
	}
	if meta != nil {
		if err := writer.WriteField("order", encodeOrderField(meta)); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to encode order metadata", err)
		}
	}
	if file != nil {
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to create attachment part", err)
		}
		if _, err := io.Copy(part, file); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to copy attachment", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to finalize multipart body", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, fmt.Sprintf("/v1/chat/messages/%d", peerID), writer.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}
	var msg models.Message
	if err := c.do(req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteMessage soft-deletes a message the current user authored.
func (c *Client) DeleteMessage(ctx context.Context, messageID int64) error {
	return c.delete(ctx, fmt.Sprintf("/v1/chat/messages/%d", messageID))
}

// UnreadMap fetches the global unread-by-counterpart map.
func (c *Client) UnreadMap(ctx context.Context) (models.UnreadMap, error) {
	var out models.UnreadMap
	if err := c.getJSON(ctx, "/v1/chat/unread", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = models.UnreadMap{}
	}
	return out, nil
}
