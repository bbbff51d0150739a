package features

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultContinueWait is how long a resumed candidate waits before Continue is accepted.
const DefaultContinueWait = 20 * time.Second

// ContinueGate counts down once and then stays open.
type ContinueGate struct {
	mu        sync.Mutex
	open      bool
	remaining int
	clock     *SessionClock
	onChange  func(remaining int, open bool)
}

// NewContinueGate starts counting immediately. onChange may be nil.
func NewContinueGate(logger *zap.Logger, wait time.Duration, newTicker TickerFunc, onChange func(remaining int, open bool)) *ContinueGate {
	if onChange == nil {
		onChange = func(int, bool) {}
	}
	g := &ContinueGate{onChange: onChange}

	seconds := int(wait / time.Second)
	if seconds <= 0 {
		g.open = true
		return g
	}

	g.remaining = seconds
	g.clock = NewSessionClock(logger, newTicker, g.tick, g.expire)
	g.clock.Start(seconds)
	return g
}

func (g *ContinueGate) tick(_ uint64, remaining int) {
	g.mu.Lock()
	g.remaining = remaining
	open := g.open
	g.mu.Unlock()
	g.onChange(remaining, open)
}

func (g *ContinueGate) expire(_ uint64) {
	g.mu.Lock()
	g.open = true
	g.remaining = 0
	g.mu.Unlock()
	g.onChange(0, true)
}

func (g *ContinueGate) Open() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}

func (g *ContinueGate) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.remaining
}

// Stop abandons the countdown; the gate keeps its current state.
func (g *ContinueGate) Stop() {
	if g.clock != nil {
		g.clock.Stop()
	}
}
