package db

import (
	"database/sql"
	"io"
	"log/slog"
)

// NewTestDB wraps an already-open connection with a discarded logger,
// for repository tests that manage their own database lifecycle
func NewTestDB(sqlDB *sql.DB) *DB {
	return &DB{
		DB:     sqlDB,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}
