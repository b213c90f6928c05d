package db

import (
	"embed"
	"fmt"
	"io/fs"
)

// MigrationsFS contains all SQL migration files embedded at compile time,
// one directory per engine.
//
//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var MigrationsFS embed.FS

// Migrations returns the migration files for the given engine ("postgres" or "sqlite")
// rooted so that the .sql files sit at the top level.
func Migrations(driver string) (fs.FS, error) {
	switch driver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("no migrations for driver %q", driver)
	}
	return fs.Sub(MigrationsFS, "migrations/"+driver)
}
