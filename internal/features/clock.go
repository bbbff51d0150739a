package features

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TickerFunc returns a tick channel firing every d and a function that stops it.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func systemTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// countdown is the goroutine state of one Start call.
type countdown struct {
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
}

// SessionClock is a restartable one-second countdown. Each Start returns a generation number
// that is passed back to the tick and expiry callbacks, so callers can drop signals that belong
// to a countdown they have already replaced.
type SessionClock struct {
	mu         sync.Mutex
	remaining  int
	running    bool
	generation uint64
	current    *countdown

	newTicker TickerFunc
	onTick    func(generation uint64, remaining int)
	onExpire  func(generation uint64)
	logger    *zap.Logger
}

// NewSessionClock builds a stopped clock. newTicker may be nil to use time.NewTicker.
func NewSessionClock(logger *zap.Logger, newTicker TickerFunc, onTick func(uint64, int), onExpire func(uint64)) *SessionClock {
	if newTicker == nil {
		newTicker = systemTicker
	}
	if onTick == nil {
		onTick = func(uint64, int) {}
	}
	if onExpire == nil {
		onExpire = func(uint64) {}
	}
	return &SessionClock{
		newTicker: newTicker,
		onTick:    onTick,
		onExpire:  onExpire,
		logger:    logger,
	}
}

// Start replaces any running countdown with a fresh one of seconds. A non-positive duration
// expires on its own goroutine without ticking.
func (c *SessionClock) Start(seconds int) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.generation++
	gen := c.generation

	if seconds <= 0 {
		c.remaining = 0
		c.running = false
		go c.onExpire(gen)
		return gen
	}

	ctx, cancel := context.WithCancel(context.Background())
	cd := &countdown{generation: gen, cancel: cancel, done: make(chan struct{})}
	c.current = cd
	c.remaining = seconds
	c.running = true

	ticks, stop := c.newTicker(time.Second)
	go c.run(ctx, cd, ticks, stop)

	c.logger.Debug("Clock started", zap.Uint64("generation", gen), zap.Int("seconds", seconds))
	return gen
}

// Stop cancels the running countdown. Safe to call repeatedly and from the callbacks.
func (c *SessionClock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *SessionClock) stopLocked() {
	if c.current == nil {
		c.running = false
		return
	}
	c.current.cancel()
	c.current = nil
	c.running = false
	c.generation++
}

func (c *SessionClock) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *SessionClock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *SessionClock) run(ctx context.Context, cd *countdown, ticks <-chan time.Time, stop func()) {
	defer close(cd.done)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			c.mu.Lock()
			if c.current != cd {
				c.mu.Unlock()
				return
			}
			if c.remaining > 0 {
				c.remaining--
			}
			remaining := c.remaining
			expired := remaining == 0
			if expired {
				c.current = nil
				c.running = false
			}
			c.mu.Unlock()

			c.onTick(cd.generation, remaining)
			if expired {
				c.logger.Debug("Clock expired", zap.Uint64("generation", cd.generation))
				c.onExpire(cd.generation)
				return
			}
		}
	}
}
