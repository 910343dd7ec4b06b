package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/journee-docs/livedocs/backend/pkg/metrics"
)

// DefaultClerkAPIURL is the hosted identity provider backend API.
const DefaultClerkAPIURL = "https://api.clerk.com/v1"

// ClerkClient implements Provider against the Clerk backend REST API.
type ClerkClient struct {
	baseURL string
	secret  string
	http    *http.Client
}

// NewClerkClient builds a provider client. baseURL may be empty to use the
// hosted endpoint; tests point it at a local fake.
func NewClerkClient(secret, baseURL string) *ClerkClient {
	if baseURL == "" {
		baseURL = DefaultClerkAPIURL
	}
	return &ClerkClient{
		baseURL: baseURL,
		secret:  secret,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// clerkUser is the provider's wire shape, reduced to what we read.
type clerkUser struct {
	ID                    string `json:"id"`
	FirstName             string `json:"first_name"`
	LastName              string `json:"last_name"`
	ImageURL              string `json:"image_url"`
	PrimaryEmailAddressID string `json:"primary_email_address_id"`
	EmailAddresses        []struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

func (u *clerkUser) toUser() *User {
	email := ""
	for _, e := range u.EmailAddresses {
		if email == "" || e.ID == u.PrimaryEmailAddressID {
			email = e.EmailAddress
		}
	}
	return &User{
		ID:     u.ID,
		Email:  email,
		Name:   strings.TrimSpace(u.FirstName + " " + u.LastName),
		Avatar: u.ImageURL,
		Color:  ColorFor(u.ID),
	}
}

func (c *ClerkClient) GetUser(ctx context.Context, id string) (*User, error) {
	var cu clerkUser
	if err := c.get(ctx, "/users/"+url.PathEscape(id), &cu); err != nil {
		return nil, err
	}
	return cu.toUser(), nil
}

func (c *ClerkClient) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	q := url.Values{}
	q.Add("email_address", email)
	q.Set("limit", "1")
	var list []clerkUser
	if err := c.get(ctx, "/users?"+q.Encode(), &list); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrUserNotFound
	}
	return list[0].toUser(), nil
}

func (c *ClerkClient) SearchUsers(ctx context.Context, query string, limit int) ([]User, error) {
	if limit <= 0 {
		limit = 10
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(limit))
	var list []clerkUser
	if err := c.get(ctx, "/users?"+q.Encode(), &list); err != nil {
		return nil, err
	}
	out := make([]User, 0, len(list))
	for i := range list {
		out = append(out, *list[i].toUser())
	}
	return out, nil
}

func (c *ClerkClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("clerk", "error").Inc()
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		metrics.UpstreamRequests.WithLabelValues("clerk", "not_found").Inc()
		return ErrUserNotFound
	}
	if resp.StatusCode != http.StatusOK {
		metrics.UpstreamRequests.WithLabelValues("clerk", "error").Inc()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("identity api %s: status %d: %s", path, resp.StatusCode, string(b))
	}
	metrics.UpstreamRequests.WithLabelValues("clerk", "ok").Inc()
	return json.NewDecoder(resp.Body).Decode(out)
}
