package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleUser = `{
	"id": "user_1",
	"first_name": "Alice",
	"last_name": "Nguyen",
	"image_url": "https://img.example.com/alice.png",
	"primary_email_address_id": "em_2",
	"email_addresses": [
		{"id": "em_1", "email_address": "old@example.com"},
		{"id": "em_2", "email_address": "alice@example.com"}
	]
}`

func TestClerkGetUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/user_1", r.URL.Path)
		assert.Equal(t, "Bearer sk_clerk", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(sampleUser))
	}))
	defer srv.Close()

	c := NewClerkClient("sk_clerk", srv.URL)
	u, err := c.GetUser(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, "user_1", u.ID)
	assert.Equal(t, "Alice Nguyen", u.Name)
	// primary email wins over list order
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, ColorFor("user_1"), u.Color)
}

func TestClerkGetUserNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClerkClient("sk_clerk", srv.URL)
	_, err := c.GetUser(context.Background(), "user_missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestClerkGetUserByEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "alice@example.com", r.URL.Query().Get("email_address"))
		_, _ = w.Write([]byte("[" + sampleUser + "]"))
	}))
	defer srv.Close()

	c := NewClerkClient("sk_clerk", srv.URL)
	u, err := c.GetUserByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user_1", u.ID)
}

func TestClerkGetUserByEmailEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c := NewClerkClient("sk_clerk", srv.URL)
	_, err := c.GetUserByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestClerkSearchUsers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ali", r.URL.Query().Get("query"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte("[" + sampleUser + "]"))
	}))
	defer srv.Close()

	c := NewClerkClient("sk_clerk", srv.URL)
	users, err := c.SearchUsers(context.Background(), "ali", 5)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "user_1", users[0].ID)
}
