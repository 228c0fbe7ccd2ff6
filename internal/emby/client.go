// Package emby implements the client for the media server's account API.
// All calls are network-bound and may fail with connectivity, auth, or
// timeout errors; callers treat every failure as recoverable and rely on the
// next reconciliation cycle rather than retrying in place.
package emby

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// lastActivityLayout matches the leading part of Emby's LastActivityDate
// values ("2023-01-15T10:30:00.0000000Z"); the fractional tail is dropped.
const lastActivityLayout = "2006-01-02T15:04:05"

// Client talks to one Emby server using an admin API key.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	pingc   *http.Client
}

// NewClient returns a Client for the given server. timeout bounds every
// account call; pingTimeout bounds the connectivity check only.
func NewClient(serverURL, apiKey string, timeout, pingTimeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(serverURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: timeout},
		pingc:   &http.Client{Timeout: pingTimeout},
	}
}

type createUserRequest struct {
	Name     string `json:"Name"`
	Password string `json:"Password"`
}

type userResponse struct {
	ID               string `json:"Id"`
	Name             string `json:"Name"`
	LastActivityDate string `json:"LastActivityDate"`
}

// SystemInfo carries the fields of /System/Info used for the startup check.
type SystemInfo struct {
	ServerName string `json:"ServerName"`
	Version    string `json:"Version"`
}

// CreateUser creates an end-user account and returns its server-assigned ID.
func (c *Client) CreateUser(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(createUserRequest{Name: username, Password: password})
	if err != nil {
		return "", err
	}

	var user userResponse
	if err := c.do(ctx, c.httpc, http.MethodPost, "/emby/Users/New", bytes.NewReader(body), &user); err != nil {
		return "", err
	}
	if user.ID == "" {
		return "", fmt.Errorf("create user %q: empty id in response", username)
	}
	return user.ID, nil
}

// DeleteUser permanently removes the account with the given server ID.
func (c *Client) DeleteUser(ctx context.Context, remoteID string) error {
	return c.do(ctx, c.httpc, http.MethodDelete, "/emby/Users/"+remoteID, nil, nil)
}

// LastActivity returns the most recent usage signal for the account, or nil
// when the server has never seen it active. Any activity timestamp is treated
// as "has logged in"; the API offers no first-login signal.
func (c *Client) LastActivity(ctx context.Context, remoteID string) (*time.Time, error) {
	var user userResponse
	if err := c.do(ctx, c.httpc, http.MethodGet, "/emby/Users/"+remoteID, nil, &user); err != nil {
		return nil, err
	}
	if user.LastActivityDate == "" {
		return nil, nil
	}

	raw := user.LastActivityDate
	if len(raw) > len(lastActivityLayout) {
		raw = raw[:len(lastActivityLayout)]
	}
	t, err := time.Parse(lastActivityLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("parse last activity %q: %w", user.LastActivityDate, err)
	}
	return &t, nil
}

// TestConnection checks that the server is reachable and the API key is
// accepted. It uses the shorter ping timeout and is meant for startup only.
func (c *Client) TestConnection(ctx context.Context) (*SystemInfo, error) {
	var info SystemInfo
	if err := c.do(ctx, c.pingc, http.MethodGet, "/emby/System/Info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) do(ctx context.Context, httpc *http.Client, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("X-Emby-Token", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: %s; body: %s", method, path, resp.Status, string(b))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
