package authgate

import (
	"context"
	"io/fs"

	persistence "github.com/goliatone/go-persistence-bun"
)

// RegisterModels registers the package models with the persistence layer
// so fixtures and relations resolve before migrations run.
func RegisterModels() {
	persistence.RegisterModel((*User)(nil))
	persistence.RegisterModel((*RevokedToken)(nil))
}

// ConfigurePersistence registers models and the embedded dialect
// migrations with a persistence client, then validates them.
func ConfigurePersistence(ctx context.Context, client *persistence.Client) error {
	RegisterModels()

	migrations, err := fs.Sub(GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}

	client.RegisterDialectMigrations(
		migrations,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	return client.ValidateDialects(ctx)
}
