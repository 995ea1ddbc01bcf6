package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/eaglebank/accounts-api/internal/config"
	"github.com/eaglebank/accounts-api/shared/apperr"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// Open returns a pooled handle to PostgreSQL and verifies it with a ping.
// Callers own the handle and must Close it on shutdown.
func Open(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	ctx, cancel := context.WithTimeout(ctx, cfg.DBConnectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// classify maps a driver error onto the apperr taxonomy. msg is the
// client-facing message used when nothing more specific applies.
func classify(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("Account not found", err)
	}
	if isConnectionError(err) {
		return apperr.Connection("Database unavailable", err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "23":
			if pqErr.Code == uniqueViolation {
				return apperr.Conflict("Resource already exists", err)
			}
			return apperr.Validation("Request violates a data constraint", err)
		case "08", "57":
			return apperr.Connection("Database unavailable", err)
		}
	}
	return apperr.Internal(msg, err)
}

func isConnectionError(err error) bool {
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// database/sql does not export its closed-handle error.
	return strings.Contains(err.Error(), "sql: database is closed")
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
