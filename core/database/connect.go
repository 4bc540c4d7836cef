package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/egebot/core/logger"
)

// Connect opens the database connection, configures the pool, and verifies connectivity.
// It keeps retrying until the server answers or timeout elapses, since Postgres often
// starts alongside the bot.
func Connect(ctx context.Context, cfg Config, timeout time.Duration) (*sqlx.DB, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	var (
		db       *sqlx.DB
		err      error
		attempts int
	)
	for {
		attempts++
		db, err = sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
		if err == nil {
			break
		}
		logger.DB.Debug("db not ready",
			slog.String("event", "db.connect"),
			slog.Int("attempts", attempts),
			slog.String("err", err.Error()),
		)
		select {
		case <-ctx.Done():
			logger.DB.Error("db connect failed",
				slog.String("event", "db.connect"),
				slog.String("driver", "postgres"),
				slog.String("host", cfg.Host),
				slog.String("port", cfg.Port),
				slog.String("db", cfg.Name),
				slog.Int("attempts", attempts),
				slog.Duration("duration", logger.Took(start)),
				slog.String("err", err.Error()),
			)
			return nil, fmt.Errorf("db connect: %w", err)
		case <-time.After(2 * time.Second):
		}
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	db.SetConnMaxIdleTime(5 * time.Minute)

	logger.DB.Info("db connected",
		slog.String("event", "db.connect"),
		slog.String("driver", "postgres"),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
		slog.Int("pool_open", cfg.MaxConnections),
		slog.Int("attempts", attempts),
		slog.Duration("duration", logger.Took(start)),
	)
	return db, nil
}
