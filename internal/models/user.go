package models

import "time"

// User is the profile shape the API returns for both the current user and
// conversation counterparts.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar,omitempty"`
	Headline  string    `json:"headline,omitempty"`
	IsSeller  bool      `json:"is_seller"`
	Online    bool      `json:"online"`
	CreatedAt time.Time `json:"created_at"`
}

// GigService is one of the current seller's offered services, listed when
// composing a custom order.
type GigService struct {
	ID    int64   `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
}
