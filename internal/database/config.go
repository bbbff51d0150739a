package dbconfig

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// ProgressTable holds one cached progress record per session.
const ProgressTable = "interview_progress"

const createProgressTable = `CREATE TABLE IF NOT EXISTS ` + ProgressTable + ` (
	session_id VARCHAR(255) NOT NULL PRIMARY KEY,
	payload JSON NOT NULL,
	updated_at DATETIME(3) NOT NULL
)`

// InitDB checks the connection and creates the progress table when it is missing.
func InitDB(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, createProgressTable); err != nil {
		return fmt.Errorf("create %s: %w", ProgressTable, err)
	}

	logger.Info("Database connected successfully", zap.String("table", ProgressTable))
	return nil
}
