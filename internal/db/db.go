package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "modernc.org/sqlite"
)

// Driver identifies the engine behind a database URL.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

const sqliteScheme = "sqlite://"

// DriverFromURL picks the engine from the URL scheme.
func DriverFromURL(databaseURL string) (Driver, error) {
	raw := strings.TrimSpace(databaseURL)
	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return DriverPostgres, nil
	case strings.HasPrefix(raw, sqliteScheme):
		return DriverSQLite, nil
	case raw == "":
		return "", fmt.Errorf("database url is empty")
	default:
		return "", fmt.Errorf("unsupported database url scheme: %s (use postgres://, postgresql:// or sqlite://)", redact(raw))
	}
}

// OpenPostgres opens a pgx pool. maxConns <= 0 keeps the pgxpool default.
func OpenPostgres(ctx context.Context, databaseURL string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	return pgxpool.NewWithConfig(ctx, cfg)
}

// OpenSQLite opens (creating if missing) the SQLite database named by a sqlite:// URL.
func OpenSQLite(ctx context.Context, databaseURL string, maxConns int32) (*sql.DB, error) {
	dsn, err := SQLiteDSN(databaseURL)
	if err != nil {
		return nil, err
	}
	if err := registerSQLiteFunctions(); err != nil {
		return nil, fmt.Errorf("register sqlite functions: %w", err)
	}
	path := dsn
	if i := strings.IndexByte(dsn, '?'); i >= 0 {
		path = dsn[:i]
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if maxConns > 0 {
		conn.SetMaxOpenConns(int(maxConns))
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return conn, nil
}

// SQLiteDSN converts a sqlite:// URL into a modernc DSN, adding busy timeout and
// WAL pragmas unless the URL already sets pragmas.
func SQLiteDSN(databaseURL string) (string, error) {
	raw := strings.TrimSpace(databaseURL)
	if !strings.HasPrefix(raw, sqliteScheme) {
		return "", fmt.Errorf("not a sqlite url: %s", redact(raw))
	}
	rest := strings.TrimPrefix(raw, sqliteScheme)
	path, query, _ := strings.Cut(rest, "?")
	if path == "" {
		return "", fmt.Errorf("sqlite url has no path")
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return "", fmt.Errorf("parse sqlite url query: %w", err)
	}
	for key := range values {
		// golang-migrate options, meaningless to the driver
		if strings.HasPrefix(key, "x-") {
			values.Del(key)
		}
	}
	if !values.Has("_pragma") {
		values.Add("_pragma", "busy_timeout(5000)")
		values.Add("_pragma", "journal_mode(WAL)")
	}
	return path + "?" + values.Encode(), nil
}

func redact(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	return parsed.Redacted()
}
