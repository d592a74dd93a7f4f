// Package records is a thin client for the backend's record-creation
// endpoints (PocketBase-style collections API). It only ever writes; no
// authentication is attached and responses beyond the session id are unused.
package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	sessionsCollection = "chat_sessions"
	messagesCollection = "chat_messages"
)

// Client issues record-creation requests against one backend base URL.
// It satisfies the widget engine's Backend interface.
type Client struct {
	base string
	hc   *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		hc:   &http.Client{Timeout: 15 * time.Second},
	}
}

// NewWithHTTPClient is used by tests and callers that need a custom client.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	c := New(baseURL)
	c.hc = hc
	return c
}

func (c *Client) collectionURL(collection string) string {
	return fmt.Sprintf("%s/api/collections/%s/records", c.base, collection)
}

// CreateSession creates an empty session record and returns its identifier.
func (c *Client) CreateSession(ctx context.Context) (string, error) {
	resp, err := c.post(ctx, sessionsCollection, map[string]any{})
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("create session: unexpected status %d", resp.StatusCode)
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode session record: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("create session: backend returned no id")
	}
	return out.ID, nil
}

// CreateMessage persists one message record. The response body is unused;
// only the status matters.
func (c *Client) CreateMessage(ctx context.Context, sessionID, content, role string) error {
	resp, err := c.post(ctx, messagesCollection, map[string]any{
		"session": sessionID,
		"content": content,
		"role":    role,
	})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("create message: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, collection string, payload map[string]any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s record: %w", collection, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.collectionURL(collection), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", collection, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s record: %w", collection, err)
	}
	return resp, nil
}
