package modules

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/fx"

	migrations "github.com/memohai/contactbook/db"
	"github.com/memohai/contactbook/internal/boot"
	"github.com/memohai/contactbook/internal/config"
	"github.com/memohai/contactbook/internal/contacts"
	"github.com/memohai/contactbook/internal/db"
	"github.com/memohai/contactbook/internal/logger"
)

const openTimeout = 10 * time.Second

// InfrastructureModule provides configuration, logging and the contact store.
func InfrastructureModule(configPath string) fx.Option {
	return fx.Module(
		"infrastructure",
		fx.Provide(
			func() (config.Config, error) { return provideConfig(configPath) },
			boot.ProvideRuntimeConfig,
			provideLogger,
			provideStore,
		),
	)
}

func provideConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

// provideStore opens the store named by the database URL, migrates it when
// configured to, and closes it when the app stops.
func provideStore(lc fx.Lifecycle, log *slog.Logger, rc *boot.RuntimeConfig) (contacts.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()

	store, driver, err := openStore(ctx, rc)
	if err != nil {
		return nil, err
	}
	if rc.MigrateOnStart {
		if err := migrateURL(log, rc.DatabaseURL, driver, db.MigrateUp, nil); err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	log.Info("contact store ready", slog.String("driver", string(driver)))

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			if err := store.Close(); err != nil {
				return fmt.Errorf("close store: %w", err)
			}
			return nil
		},
	})
	return store, nil
}

func openStore(ctx context.Context, rc *boot.RuntimeConfig) (contacts.Store, db.Driver, error) {
	driver, err := db.DriverFromURL(rc.DatabaseURL)
	if err != nil {
		return nil, "", err
	}
	switch driver {
	case db.DriverPostgres:
		pool, err := db.OpenPostgres(ctx, rc.DatabaseURL, rc.MaxConns)
		if err != nil {
			return nil, driver, fmt.Errorf("db connect: %w", err)
		}
		return contacts.NewPostgresStore(pool), driver, nil
	case db.DriverSQLite:
		conn, err := db.OpenSQLite(ctx, rc.DatabaseURL, rc.MaxConns)
		if err != nil {
			return nil, driver, fmt.Errorf("db open: %w", err)
		}
		return contacts.NewSQLiteStore(conn), driver, nil
	default:
		return nil, driver, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func migrateURL(log *slog.Logger, databaseURL string, driver db.Driver, command string, args []string) error {
	source, err := migrations.Migrations(string(driver))
	if err != nil {
		return err
	}
	return db.RunMigrate(log, databaseURL, source, command, args)
}

// Migrate runs a migrate command against the configured database.
func Migrate(configPath, command string, args []string) error {
	cfg, err := provideConfig(configPath)
	if err != nil {
		return err
	}
	log := provideLogger(cfg)
	rc, err := boot.ProvideRuntimeConfig(cfg)
	if err != nil {
		return err
	}
	driver, err := db.DriverFromURL(rc.DatabaseURL)
	if err != nil {
		return err
	}
	if driver == db.DriverSQLite {
		// creates the file and its directory so migrate can open it
		ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
		defer cancel()
		conn, err := db.OpenSQLite(ctx, rc.DatabaseURL, 1)
		if err != nil {
			return err
		}
		_ = conn.Close()
	}
	return migrateURL(log, rc.DatabaseURL, driver, command, args)
}
