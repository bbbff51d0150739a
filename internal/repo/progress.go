package repo

import (
	"context"
	"errors"
	"sync"

	"interviewassistant/api"
)

var ErrEmptySessionID = errors.New("session id is empty")

// IProgress caches the resumable state of a session. Load reports found=false when nothing is cached.
type IProgress interface {
	Save(ctx context.Context, sessionID string, progress *api.Progress) error
	Load(ctx context.Context, sessionID string) (*api.Progress, bool, error)
	Clear(ctx context.Context, sessionID string) error
}

type MemoryProgress struct {
	mu      sync.RWMutex
	records map[string]api.Progress
}

func NewMemoryProgressRepository() *MemoryProgress {
	return &MemoryProgress{records: make(map[string]api.Progress)}
}

func (r *MemoryProgress) Save(ctx context.Context, sessionID string, progress *api.Progress) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[sessionID] = cloneProgress(progress)
	return nil
}

func (r *MemoryProgress) Load(ctx context.Context, sessionID string) (*api.Progress, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.records[sessionID]
	if !ok {
		return nil, false, nil
	}
	out := cloneProgress(&p)
	return &out, true, nil
}

func (r *MemoryProgress) Clear(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, sessionID)
	return nil
}

func cloneProgress(p *api.Progress) api.Progress {
	out := *p
	if p.Answers != nil {
		out.Answers = append([]string(nil), p.Answers...)
	}
	return out
}
