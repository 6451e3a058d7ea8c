package api

import (
	"context"
	"fmt"

	"sanee/messenger/internal/models"
)

// IUsersAPI defines the profile and conversation-list operations.
type IUsersAPI interface {
	Me(ctx context.Context) (*models.User, error)
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	ListConversations(ctx context.Context) ([]models.ConversationSummary, error)
}

// Me fetches the current user's profile.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.getJSON(ctx, "/v1/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser fetches a counterpart's profile.
func (c *Client) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/users/%d", userID), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListConversations returns the counterpart users with last-message previews.
func (c *Client) ListConversations(ctx context.Context) ([]models.ConversationSummary, error) {
	var envelope struct {
		Data []models.ConversationSummary `json:"data"`
	}
	if err := c.getJSON(ctx, "/v1/chat/conversations", &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}
