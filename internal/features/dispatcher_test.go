package features

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDispatcherRunsJobs(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Workers: 2, QueueSize: 4}, zap.NewNop())
	d.Start()
	defer d.Stop()

	var ran int64
	for i := 0; i < 10; i++ {
		ok := d.Enqueue(DispatchJob{Kind: "test", Run: func(ctx context.Context) {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			atomic.AddInt64(&ran, 1)
		}})
		assert.True(t, ok)
	}

	d.Wait()
	assert.Equal(t, int64(10), atomic.LoadInt64(&ran))

	metrics := d.GetMetrics()
	assert.Equal(t, int64(10), metrics["total_jobs_enqueued"])
	assert.Equal(t, int64(10), metrics["total_jobs_processed"])
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Workers: 1, QueueSize: 1, EnqueueTimeout: 10 * time.Millisecond}, zap.NewNop())

	// Not started: the first job fills the queue, the second times out.
	assert.True(t, d.Enqueue(DispatchJob{Kind: "a", Run: func(context.Context) {}}))
	assert.False(t, d.Enqueue(DispatchJob{Kind: "b", Run: func(context.Context) {}}))
	assert.Equal(t, int64(1), d.GetMetrics()["total_jobs_dropped"])

	d.Start()
	d.Wait()
	d.Stop()
}

func TestDispatcherStopDrainsAndRejects(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{Workers: 1, QueueSize: 8}, zap.NewNop())
	var ran int64
	for i := 0; i < 3; i++ {
		d.Enqueue(DispatchJob{Kind: "drain", Run: func(context.Context) { atomic.AddInt64(&ran, 1) }})
	}
	d.Start()
	d.Stop()
	d.Stop()

	assert.Equal(t, int64(3), atomic.LoadInt64(&ran))
	assert.False(t, d.Enqueue(DispatchJob{Kind: "late", Run: func(context.Context) {}}))
}

func TestDispatcherSurvivesPanics(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{}, zap.NewNop())
	d.Start()
	defer d.Stop()

	var ran int64
	d.Enqueue(DispatchJob{Kind: "panic", Run: func(context.Context) { panic("boom") }})
	d.Enqueue(DispatchJob{Kind: "after", Run: func(context.Context) { atomic.AddInt64(&ran, 1) }})
	d.Wait()
	assert.Equal(t, int64(1), atomic.LoadInt64(&ran))
}
