package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a typed API client for the problem-report service. Reads go
// through an explicit response cache; mutations invalidate the signatures
// they affect.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	cache   *Cache
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sets the bearer token for authenticated calls.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		cache:   NewCache(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cache exposes the response cache, mainly for view bindings.
func (c *Client) Cache() *Cache {
	return c.cache
}

func signature(method, path string) string {
	return method + " " + path
}

// getJSON resolves a GET through the cache. With force set the cache is
// bypassed on read but still updated on success.
func (c *Client) getJSON(ctx context.Context, path string, out any, force bool) error {
	sig := signature(http.MethodGet, path)
	if !force {
		if raw, ok := c.cache.Get(sig); ok {
			return json.Unmarshal(raw, out)
		}
	}
	raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	c.cache.Set(sig, raw)
	return json.Unmarshal(raw, out)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, decodeAPIError(resp.StatusCode, payload)
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return envelope.Data, nil
}

func decodeAPIError(status int, payload []byte) error {
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(payload, &envelope); err == nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}

func reportPath(reportID string) string {
	return "/problem-reports/" + reportID
}

func messagesPath(reportID string) string {
	return reportPath(reportID) + "/messages"
}

// Report fetches a problem report through the cache.
func (c *Client) Report(ctx context.Context, reportID string) (*Report, error) {
	var report Report
	if err := c.getJSON(ctx, reportPath(reportID), &report, false); err != nil {
		return nil, err
	}
	return &report, nil
}

// Messages fetches the conversation thread. force bypasses the cache read,
// which is what the poll loop wants.
func (c *Client) Messages(ctx context.Context, reportID string, force bool) ([]Message, error) {
	var msgs []Message
	if err := c.getJSON(ctx, messagesPath(reportID), &msgs, force); err != nil {
		return nil, err
	}
	return msgs, nil
}

// PostMessage appends a message to the thread.
func (c *Client) PostMessage(ctx context.Context, reportID, body string, isInternal bool) (*Message, error) {
	raw, err := c.do(ctx, http.MethodPost, messagesPath(reportID), map[string]any{
		"message":    body,
		"isInternal": isInternal,
	})
	if err != nil {
		return nil, err
	}
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// UpdateReport sends a PATCH with the given body and invalidates the
// report's signature on success.
func (c *Client) UpdateReport(ctx context.Context, reportID string, body map[string]any) (*Report, error) {
	raw, err := c.do(ctx, http.MethodPatch, reportPath(reportID), body)
	if err != nil {
		return nil, err
	}
	c.cache.Invalidate(signature(http.MethodGet, reportPath(reportID)))
	var report Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ArchiveReport archives a completed report.
func (c *Client) ArchiveReport(ctx context.Context, reportID string) (*Report, error) {
	raw, err := c.do(ctx, http.MethodPost, reportPath(reportID)+"/archive", nil)
	if err != nil {
		return nil, err
	}
	c.cache.Invalidate(signature(http.MethodGet, reportPath(reportID)))
	var report Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Users lists all users through the cache.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.getJSON(ctx, "/users", &users, false); err != nil {
		return nil, err
	}
	return users, nil
}

// Notifications fetches the viewer's notification rows, bypassing the cache
// read so the list stays current.
func (c *Client) Notifications(ctx context.Context) ([]Notification, error) {
	var items []Notification
	if err := c.getJSON(ctx, "/notifications", &items, true); err != nil {
		return nil, err
	}
	return items, nil
}

// MarkNotificationRead flags one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, notificationID string) error {
	_, err := c.do(ctx, http.MethodPost, "/notifications/"+notificationID+"/read", nil)
	return err
}
