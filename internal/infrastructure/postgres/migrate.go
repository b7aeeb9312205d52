package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func migrationFiles() (fs.FS, error) {
	return fs.Sub(migrationsFS, "migrations")
}

// Migrate aplica con goose las migraciones embebidas pendientes. El session locker de Postgres
// (pg_advisory_lock) serializa réplicas que arrancan a la vez.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	fsys, err := migrationFiles()
	if err != nil {
		return fmt.Errorf("migraciones embebidas: %w", err)
	}
	locker, err := lock.NewPostgresSessionLocker()
	if err != nil {
		return fmt.Errorf("locker de migraciones: %w", err)
	}

	// Cerrar db no cierra el pool.
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys, goose.WithSessionLocker(locker))
	if err != nil {
		return fmt.Errorf("proveedor goose: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("aplicar migraciones: %w", err)
	}
	return nil
}
