package client

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DefaultPollInterval is how often the conversation refetches its thread.
const DefaultPollInterval = 5 * time.Second

// Conversation binds a report's message thread to a panel: a draft being
// composed, a poll loop that keeps the thread current while the panel is
// open, and a cue that fires when new messages arrive between polls.
type Conversation struct {
	client   *Client
	reportID string
	viewer   Viewer
	interval time.Duration

	// onMessages receives every successfully fetched thread.
	onMessages func([]Message)
	// onCue fires when the message count grows after the first load.
	// A nil cue is skipped silently.
	onCue func()

	mu        sync.Mutex
	draft     string
	lastCount int
	loaded    bool
}

// ConversationOption configures a Conversation.
type ConversationOption func(*Conversation)

// WithPollInterval overrides the poll interval.
func WithPollInterval(d time.Duration) ConversationOption {
	return func(c *Conversation) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithMessageListener registers the thread callback.
func WithMessageListener(fn func([]Message)) ConversationOption {
	return func(c *Conversation) { c.onMessages = fn }
}

// WithCue registers the new-message cue callback.
func WithCue(fn func()) ConversationOption {
	return func(c *Conversation) { c.onCue = fn }
}

// NewConversation creates a conversation panel binding.
func NewConversation(c *Client, reportID string, viewer Viewer, opts ...ConversationOption) *Conversation {
	conv := &Conversation{
		client:   c,
		reportID: reportID,
		viewer:   viewer,
		interval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(conv)
	}
	return conv
}

// SetDraft replaces the compose field contents.
func (c *Conversation) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()
}

// Draft returns the compose field contents.
func (c *Conversation) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Watch polls the thread until ctx is canceled. The first fetch happens
// immediately; afterwards one fetch per interval. A failed poll is retried
// on the next tick with no backoff.
func (c *Conversation) Watch(ctx context.Context) {
	c.poll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.poll(ctx)
		}
	}
}

// Send posts the current draft. Empty or whitespace-only drafts are rejected
// before any request is issued. Non-admin viewers always send external
// messages regardless of the flag. On success the draft clears, the thread
// and report signatures are invalidated, and the thread refetches at once.
func (c *Conversation) Send(ctx context.Context, isInternal bool) error {
	body := strings.TrimSpace(c.Draft())
	if body == "" {
		return ErrEmptyMessage
	}
	if !c.viewer.IsAdmin() {
		isInternal = false
	}

	if _, err := c.client.PostMessage(ctx, c.reportID, body, isInternal); err != nil {
		return err
	}

	c.SetDraft("")
	c.client.Cache().Invalidate(signature(http.MethodGet, messagesPath(c.reportID)))
	c.client.Cache().Invalidate(signature(http.MethodGet, reportPath(c.reportID)))
	c.poll(ctx)
	return nil
}

// CanMarkInternal reports whether the internal/external toggle is offered.
func (c *Conversation) CanMarkInternal() bool {
	return c.viewer.IsAdmin()
}

func (c *Conversation) poll(ctx context.Context) {
	msgs, err := c.client.Messages(ctx, c.reportID, true)
	if err != nil {
		// stale data stays on screen; the next tick retries
		return
	}

	c.mu.Lock()
	grew := c.loaded && len(msgs) > c.lastCount
	c.lastCount = len(msgs)
	c.loaded = true
	cue := c.onCue
	listener := c.onMessages
	c.mu.Unlock()

	if grew && cue != nil {
		cue()
	}
	if listener != nil {
		listener(msgs)
	}
}
