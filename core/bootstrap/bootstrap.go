package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/egebot/core/config"
	coredatabase "github.com/m3rciful/egebot/core/database"
	"github.com/m3rciful/egebot/core/logger"
	"github.com/m3rciful/egebot/core/telegram/state"
)

// SessionOptions selects the conversation session backend.
type SessionOptions struct {
	// URL is a redis:// location; empty selects the in-process store.
	URL string
	TTL time.Duration
}

// Options control the bootstrap pipeline: logger, database, migrations,
// session store and seeders.
type Options struct {
	Config     *coreconfig.Config
	Database   coredatabase.Config
	Migrations fs.FS
	Sessions   SessionOptions
	Modules    Modules

	ConnectTimeout time.Duration

	LoggerInit   func(*coreconfig.Config) error
	Connect      func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate      func(coredatabase.Config, fs.FS) error
	OpenSessions func(context.Context, SessionOptions) (state.Store, io.Closer, error)
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB       *sqlx.DB
	Sessions state.Store

	closers []io.Closer
}

// Close releases the session backend and the database pool.
func (r *Result) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// Run initializes the logger, connects to the database, applies migrations,
// opens the session store and runs the seeders.
func Run(ctx context.Context, opts Options) (_ *Result, err error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	connect := opts.Connect
	if connect == nil {
		connect = func(ctx context.Context, cfg coredatabase.Config) (*sqlx.DB, error) {
			return coredatabase.Connect(ctx, cfg, opts.ConnectTimeout)
		}
	}
	db, err := connect(ctx, opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}
	res := &Result{DB: db, closers: []io.Closer{db}}
	defer func() {
		if err != nil {
			_ = res.Close()
		}
	}()

	if opts.Migrations != nil {
		migrate := opts.Migrate
		if migrate == nil {
			migrate = coredatabase.RunMigrations
		}
		if err := migrate(opts.Database, opts.Migrations); err != nil {
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
	}

	openSessions := opts.OpenSessions
	if openSessions == nil {
		openSessions = OpenSessions
	}
	sessions, closer, err := openSessions(ctx, opts.Sessions)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: session store failed: %w", err)
	}
	res.Sessions = sessions
	if closer != nil {
		res.closers = append(res.closers, closer)
	}

	storage := Storage{DB: db, Sessions: sessions}
	for i, seeder := range opts.Modules.Seeders {
		if seeder == nil {
			continue
		}
		if err := seeder.Seed(ctx, storage); err != nil {
			return nil, fmt.Errorf("bootstrap: seeder %d failed: %w", i, err)
		}
	}

	return res, nil
}

// OpenSessions returns a Redis-backed store for a redis:// URL and an
// in-process store when the URL is empty.
func OpenSessions(ctx context.Context, opts SessionOptions) (state.Store, io.Closer, error) {
	if opts.URL == "" {
		logger.Session.Warn("using in-memory sessions",
			slog.String("event", "session.open"),
			slog.String("mode", "memory"),
		)
		return state.NewMemoryStore(opts.TTL), nil, nil
	}
	client, err := state.DialRedis(ctx, opts.URL)
	if err != nil {
		return nil, nil, err
	}
	return state.NewRedisStore(client, "", opts.TTL), client, nil
}
