package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"interviewassistant/api"
)

// FileProgress keeps one JSON document per session under dir.
type FileProgress struct {
	dir string
}

func NewFileProgressRepository(dir string) (*FileProgress, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create progress dir: %w", err)
	}
	return &FileProgress{dir: dir}, nil
}

func (r *FileProgress) path(sessionID string) string {
	return filepath.Join(r.dir, url.PathEscape(sessionID)+".json")
}

// Save writes to a temp file and renames it so a crash never leaves a torn record.
func (r *FileProgress) Save(ctx context.Context, sessionID string, progress *api.Progress) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	data, err := json.MarshalIndent(progress, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}

	tmp, err := os.CreateTemp(r.dir, ".progress-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write progress: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close progress: %w", err)
	}

	if err := os.Rename(tmp.Name(), r.path(sessionID)); err != nil {
		return fmt.Errorf("replace progress: %w", err)
	}
	return nil
}

func (r *FileProgress) Load(ctx context.Context, sessionID string) (*api.Progress, bool, error) {
	if sessionID == "" {
		return nil, false, ErrEmptySessionID
	}

	data, err := os.ReadFile(r.path(sessionID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read progress: %w", err)
	}

	var p api.Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false, fmt.Errorf("unmarshal progress: %w", err)
	}
	return &p, true, nil
}

func (r *FileProgress) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	err := os.Remove(r.path(sessionID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove progress: %w", err)
	}
	return nil
}
