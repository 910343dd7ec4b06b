package identity

import (
	"context"
	"errors"
)

// User is the profile shape served to the editor frontend. Color is derived
// deterministically from the user id so cursors keep a stable hue across
// sessions and machines.
type User struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Color  string `json:"color"`
}

// ErrUserNotFound is returned when a lookup matches no user at the provider.
var ErrUserNotFound = errors.New("user not found")

// Provider is the slice of the identity provider the service consumes.
type Provider interface {
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]User, error)
}

var palette = []string{
	"#FF6B6B",
	"#4ECDC4",
	"#45B7D1",
	"#96CEB4",
	"#FFEAA7",
	"#DDA0DD",
	"#98D8C8",
	"#F7DC6F",
}

// ColorFor maps a user id onto the fixed cursor palette. The hash matches
// the one the web client historically used, so colors agree across stacks.
func ColorFor(userID string) string {
	var hash int32
	for _, c := range userID {
		hash = int32(c) + (hash << 5) - hash
	}
	if hash < 0 {
		hash = -hash
	}
	return palette[int(hash)%len(palette)]
}
