package features

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"interviewassistant/api"
	"interviewassistant/internal/service"
)

// ChatLog is the append-only transcript of one session. Entries are mirrored best-effort;
// a failed mirror never removes the local entry.
type ChatLog struct {
	mu         sync.RWMutex
	entries    []api.ChatEntry
	token      string
	mirror     service.Mirror
	dispatcher *Dispatcher
	listeners  []func(api.ChatEntry)
	logger     *zap.Logger
	now        func() time.Time
}

// NewChatLog mirrors through dispatcher when given one, inline otherwise. mirror may be nil.
func NewChatLog(token string, mirror service.Mirror, dispatcher *Dispatcher, logger *zap.Logger) *ChatLog {
	return &ChatLog{
		token:      token,
		mirror:     mirror,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// OnAppend registers fn to be called with every new entry.
func (c *ChatLog) OnAppend(fn func(api.ChatEntry)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Append stamps entry with an id and creation time when missing and adds it to the end.
func (c *ChatLog) Append(ctx context.Context, entry api.ChatEntry) api.ChatEntry {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = c.now().UTC()
	}

	c.mu.Lock()
	c.entries = append(c.entries, entry)
	listeners := c.listeners
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(entry)
	}
	c.mirrorEntry(ctx, entry)
	return entry
}

// Entries returns a copy of the transcript in insertion order.
func (c *ChatLog) Entries() []api.ChatEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]api.ChatEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *ChatLog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ChatLog) mirrorEntry(ctx context.Context, entry api.ChatEntry) {
	if c.mirror == nil {
		return
	}

	send := func(ctx context.Context) {
		if err := c.mirror.Mirror(ctx, c.token, entry); err != nil {
			c.logger.Warn("Failed to mirror chat entry",
				zap.String("entryID", entry.ID),
				zap.String("kind", string(entry.Kind)),
				zap.Error(err))
		}
	}

	if c.dispatcher == nil {
		send(ctx)
		return
	}
	if !c.dispatcher.Enqueue(DispatchJob{Kind: "chat", SessionToken: c.token, Run: send}) {
		c.logger.Warn("Chat entry not mirrored, dispatcher unavailable", zap.String("entryID", entry.ID))
	}
}
