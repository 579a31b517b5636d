// Package discord is a minimal client for the one Discord REST call
// this program needs: renaming a channel. No gateway connection, no
// SDK; just authenticated HTTP against the public API.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the production Discord REST endpoint.
	DefaultBaseURL = "https://discord.com/api/v10"

	requestTimeout = 10 * time.Second
)

// Client talks to the Discord REST API with a bot token.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root (tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client authenticating as the given bot token.
func New(token string, opts ...Option) *Client {
	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RenameChannel sets the channel's display name. The call is bounded by
// both ctx and the client timeout; failures are returned for the caller
// to log, never retried here.
func (c *Client) RenameChannel(ctx context.Context, channelID, name string) error {
	payload, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/channels/%s", c.baseURL, channelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("renaming channel %s: %w", channelID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("renaming channel %s: discord returned %d: %s",
			channelID, resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}
