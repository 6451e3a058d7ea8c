package api

import "context"

// INotificationsAPI exposes the separately-polled notification subsystem.
type INotificationsAPI interface {
	UnreadNotificationCount(ctx context.Context) (int, error)
}

// UnreadNotificationCount fetches the badge count for the notification bell.
func (c *Client) UnreadNotificationCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.getJSON(ctx, "/v1/notifications/unread-count", &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}
