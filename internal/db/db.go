package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"opensesame/internal/logger"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq" // postgres driver
)

// PSQL builds Postgres-flavoured statements.
var PSQL = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type DB struct {
	*sql.DB
}

// Open connects to Postgres through lib/pq and verifies the connection.
func Open(ctx context.Context, dsn string) (*DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db error: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping db error: %w", err)
	}

	return &DB{DB: sqlDB}, nil
}

// CommitOrRollback finishes tx according to err and returns the error the
// caller should report. Use it from a deferred closure.
func CommitOrRollback(tx *sql.Tx, err error, op string) error {
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Error("rollback failed", map[string]any{
				"op":    op,
				"error": rbErr.Error(),
			})
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s commit error: %w", op, err)
	}
	return nil
}
