package bootstrap

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/egebot/core/telegram/state"
)

// Storage is the infrastructure handed to seeders.
type Storage struct {
	DB       *sqlx.DB
	Sessions state.Store
}

// Seeder loads reference data at startup.
type Seeder interface {
	Seed(ctx context.Context, storage Storage) error
}

// SeederFunc adapts a bare function to the Seeder interface.
type SeederFunc func(ctx context.Context, storage Storage) error

// Seed executes the underlying function.
func (f SeederFunc) Seed(ctx context.Context, storage Storage) error {
	return f(ctx, storage)
}

// Modules groups optional bootstrapping hooks.
type Modules struct {
	Seeders []Seeder
}
