package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/m3rciful/egebot/core/logger"
)

// uniqueViolation is the SQLSTATE Postgres reports for a broken unique constraint.
const uniqueViolation pq.ErrorCode = "23505"

// IsUniqueViolation reports whether err carries a Postgres unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Constraint returns the violated constraint name, if err is a Postgres error.
func Constraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}

// WithTx runs fn inside a transaction. The transaction is committed when fn returns nil
// and rolled back when it returns an error or panics.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.LogEvent(ctx, logger.DB, slog.LevelWarn, "tx.rollback",
				slog.String("status", "fail"),
				slog.String("err", rbErr.Error()),
			)
		}
		if p := recover(); p != nil {
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	committed = true
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
