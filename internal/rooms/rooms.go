package rooms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL is the hosted realtime provider endpoint.
const DefaultBaseURL = "https://api.liveblocks.io/v2"

// PermissionWrite grants full collaborative access to a room.
var PermissionWrite = []string{"room:write"}

// PermissionRead grants read access plus presence (cursors, selections).
var PermissionRead = []string{"room:read", "room:presence:write"}

// Room mirrors the provider's room object as far as this service needs it.
type Room struct {
	ID               string              `json:"id"`
	Metadata         map[string]string   `json:"metadata"`
	DefaultAccesses  []string            `json:"defaultAccesses"`
	UsersAccesses    map[string][]string `json:"usersAccesses"`
	CreatedAt        time.Time           `json:"createdAt"`
	LastConnectionAt time.Time           `json:"lastConnectionAt"`
}

// InboxNotification is a single entry of a user's notification inbox.
type InboxNotification struct {
	ID       string          `json:"id"`
	Kind     string          `json:"kind"`
	RoomID   string          `json:"roomId,omitempty"`
	ReadAt   *time.Time      `json:"readAt"`
	Activity json.RawMessage `json:"activities,omitempty"`
}

// InboxPage is a cursor-paged slice of a user's inbox.
type InboxPage struct {
	Notifications []InboxNotification `json:"data"`
	NextCursor    string              `json:"nextCursor,omitempty"`
}

// Client talks to the realtime room provider's REST API with a server
// secret. All methods surface the provider's failures as errors; deciding
// whether a failure is fatal is the caller's business (document mutations
// treat room sync as best-effort).
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
}

// NewClient builds a provider client. baseURL may be empty to use the hosted
// endpoint; tests point it at a local fake.
func NewClient(secret, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		secret:  secret,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateRoom registers a new private room owned by ownerID.
func (c *Client) CreateRoom(ctx context.Context, roomID, ownerID string, metadata map[string]string) error {
	md := map[string]string{"createdBy": ownerID}
	for k, v := range metadata {
		md[k] = v
	}
	body := map[string]interface{}{
		"id":              roomID,
		"defaultAccesses": []string{},
		"usersAccesses":   map[string][]string{ownerID: PermissionWrite},
		"metadata":        md,
	}
	return c.do(ctx, http.MethodPost, "/rooms", body, nil)
}

// GetRoom fetches a room by id.
func (c *Client) GetRoom(ctx context.Context, roomID string) (*Room, error) {
	var room Room
	if err := c.do(ctx, http.MethodGet, "/rooms/"+url.PathEscape(roomID), nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// UpdateRoomMetadata merges metadata into the room.
func (c *Client) UpdateRoomMetadata(ctx context.Context, roomID string, metadata map[string]string) error {
	body := map[string]interface{}{"metadata": metadata}
	return c.do(ctx, http.MethodPost, "/rooms/"+url.PathEscape(roomID), body, nil)
}

// DeleteRoom removes the room and all of its realtime state.
func (c *Client) DeleteRoom(ctx context.Context, roomID string) error {
	return c.do(ctx, http.MethodDelete, "/rooms/"+url.PathEscape(roomID), nil, nil)
}

// GrantAccess gives userID the supplied permissions on the room.
func (c *Client) GrantAccess(ctx context.Context, roomID, userID string, permissions []string) error {
	if len(permissions) == 0 {
		permissions = PermissionWrite
	}
	body := map[string]interface{}{
		"usersAccesses": map[string]interface{}{userID: permissions},
	}
	return c.do(ctx, http.MethodPost, "/rooms/"+url.PathEscape(roomID), body, nil)
}

// RevokeAccess removes userID's access to the room. The provider treats a
// null access entry as deletion.
func (c *Client) RevokeAccess(ctx context.Context, roomID, userID string) error {
	body := map[string]interface{}{
		"usersAccesses": map[string]interface{}{userID: nil},
	}
	return c.do(ctx, http.MethodPost, "/rooms/"+url.PathEscape(roomID), body, nil)
}

// GetInboxNotifications returns a page of userID's inbox.
func (c *Client) GetInboxNotifications(ctx context.Context, userID string, limit int, cursor string) (*InboxPage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		q.Set("startingAfter", cursor)
	}
	path := "/users/" + url.PathEscape(userID) + "/inbox-notifications"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var page InboxPage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// MarkNotificationRead marks one inbox notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	path := "/users/" + url.PathEscape(userID) + "/inbox-notifications/" + url.PathEscape(notificationID) + "/read"
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// MarkAllNotificationsRead marks the whole inbox as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	path := "/users/" + url.PathEscape(userID) + "/inbox-notifications/read"
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// DeleteNotification deletes one inbox notification.
func (c *Client) DeleteNotification(ctx context.Context, userID, notificationID string) error {
	path := "/users/" + url.PathEscape(userID) + "/inbox-notifications/" + url.PathEscape(notificationID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// TriggerNotification pushes a custom notification into userID's inbox, e.g.
// when they are invited to a document.
func (c *Client) TriggerNotification(ctx context.Context, userID, kind, subjectID, roomID string, activityData map[string]interface{}) error {
	body := map[string]interface{}{
		"userId":       userID,
		"kind":         kind,
		"subjectId":    subjectID,
		"activityData": activityData,
	}
	if roomID != "" {
		body["roomId"] = roomID
	}
	return c.do(ctx, http.MethodPost, "/inbox-notifications/trigger", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("rooms api %s %s: status %d: %s", method, path, resp.StatusCode, string(b))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
