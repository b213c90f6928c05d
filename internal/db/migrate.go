package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Migrate commands accepted by RunMigrate.
const (
	MigrateUp      = "up"
	MigrateDown    = "down"
	MigrateVersion = "version"
	MigrateForce   = "force"
)

// RunMigrate runs one migrate command against databaseURL using the .sql files
// at the root of migrationsFS, which must be written for that URL's engine.
//
//	up [N]     apply all pending migrations, or the next N
//	down [N]   roll back all migrations, or the last N
//	version    log the current version
//	force N    set the version without running anything, to clear a dirty state
func RunMigrate(logger *slog.Logger, databaseURL string, migrationsFS fs.FS, command string, args []string) error {
	steps, err := migrateArgs(command, args)
	if err != nil {
		return err
	}
	driver, err := DriverFromURL(databaseURL)
	if err != nil {
		return err
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "migrate"), slog.String("driver", string(driver)))

	source, err := iofs.New(migrationsFS, ".")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return fmt.Errorf("open %s for migration: %w", driver, err)
	}
	defer m.Close()
	m.Log = migrateLogger{logger: logger}

	switch command {
	case MigrateUp:
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case MigrateDown:
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	case MigrateForce:
		err = m.Force(steps)
	case MigrateVersion:
		return logVersion(logger, m)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("schema already current")
		err = nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	return logVersion(logger, m)
}

// migrateArgs validates the command and returns its numeric argument, or 0
// when the command takes none or it was omitted.
func migrateArgs(command string, args []string) (int, error) {
	switch command {
	case MigrateUp, MigrateDown:
		if len(args) == 0 {
			return 0, nil
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("%s takes a positive step count, got %q", command, args[0])
		}
		return n, nil
	case MigrateForce:
		if len(args) == 0 {
			return 0, fmt.Errorf("force requires a version number argument")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < -1 {
			return 0, fmt.Errorf("invalid version %q", args[0])
		}
		return n, nil
	case MigrateVersion:
		return 0, nil
	default:
		return 0, fmt.Errorf("unknown migrate command: %s (use: up, down, version, force)", command)
	}
}

func logVersion(logger *slog.Logger, m *migrate.Migrate) error {
	ver, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		logger.Info("no migrations applied")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		logger.Warn("schema version is dirty; fix the database and run force", slog.Uint64("version", uint64(ver)))
		return nil
	}
	logger.Info("schema version", slog.Uint64("version", uint64(ver)))
	return nil
}

// migrateLogger routes golang-migrate's progress lines to slog at debug level,
// and only asks for them when debug logging is on.
type migrateLogger struct {
	logger *slog.Logger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return l.logger.Enabled(context.Background(), slog.LevelDebug)
}
