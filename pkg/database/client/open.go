package client

import (
	"database/sql"
	"errors"
	"os"
	"time"

	"github.com/go-sql-driver/mysql"
	sqltrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/database/sql"
)

const driverName = "mysql"

// Open returns a pooled *sql.DB, traced through dd-trace when enabled.
func Open(cfg *Config) (*sql.DB, error) {
	if cfg == nil || cfg.Host == "" {
		return nil, errors.New("database host is not configured")
	}

	var (
		db  *sql.DB
		err error
	)

	dsn := FormatDSN(cfg)
	if cfg.TracingEnabled {
		sqltrace.Register(driverName, &mysql.MySQLDriver{}, sqltrace.WithServiceName(os.Getenv("DD_SERVICE")))
		db, err = sqltrace.Open(driverName, dsn, sqltrace.WithServiceName(os.Getenv("DD_SERVICE")))
	} else {
		db, err = sql.Open(driverName, dsn)
	}
	if err != nil {
		return nil, err
	}

	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifeTime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifeTime) * time.Minute)
	}
	return db, nil
}
