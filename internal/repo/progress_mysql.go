package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"interviewassistant/api"
)

type MySQLProgress struct {
	db  *sql.DB
	now func() time.Time
}

func NewMySQLProgressRepository(db *sql.DB) *MySQLProgress {
	return &MySQLProgress{db: db, now: time.Now}
}

func (r *MySQLProgress) Save(ctx context.Context, sessionID string, progress *api.Progress) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	payload, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}

	query := `INSERT INTO interview_progress (session_id, payload, updated_at) VALUES (?, ?, ?)
	          ON DUPLICATE KEY UPDATE payload = VALUES(payload), updated_at = VALUES(updated_at)`
	if _, err := r.db.ExecContext(ctx, query, sessionID, payload, r.now().UTC()); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (r *MySQLProgress) Load(ctx context.Context, sessionID string) (*api.Progress, bool, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM interview_progress WHERE session_id = ?`, sessionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load progress: %w", err)
	}

	var p api.Progress
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, false, fmt.Errorf("unmarshal progress: %w", err)
	}
	return &p, true, nil
}

func (r *MySQLProgress) Clear(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM interview_progress WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear progress: %w", err)
	}
	return nil
}
