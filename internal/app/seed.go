package app

import (
	"context"

	"github.com/m3rciful/egebot/core/bootstrap"
	"github.com/m3rciful/egebot/internal/store"
)

// SubjectSeeder inserts the configured subjects that are missing from the catalog.
func SubjectSeeder(names []string) bootstrap.Seeder {
	return bootstrap.SeederFunc(func(ctx context.Context, storage bootstrap.Storage) error {
		_, err := store.New(storage.DB).EnsureSubjects(ctx, names)
		return err
	})
}
