package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"airweather-map/internal/config"

	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the catalog database. With SQL_LOG=true every statement is logged at debug level.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sql.DB, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	if cfg.SQLLog {
		connector, err := NewLoggingConnector(dsn, logger)
		if err != nil {
			return nil, fmt.Errorf("db connector: %w", err)
		}
		db = sql.OpenDB(connector)
	} else {
		db, err = sql.Open(cfg.SQLiteDriver, dsn)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
	}

	applyPool(db, poolFor(cfg, logger))

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}

type poolSettings struct {
	maxOpen     int
	maxIdle     int
	maxLifetime time.Duration
}

// poolFor returns the pool settings for cfg. An in-memory database exists only inside its
// connection, so it is pinned to one connection that is never closed or recycled.
func poolFor(cfg config.Config, logger *slog.Logger) poolSettings {
	p := poolSettings{
		maxOpen:     cfg.SQLiteMaxOpenConns,
		maxIdle:     cfg.SQLiteMaxIdleConns,
		maxLifetime: cfg.SQLiteConnMaxLifetime,
	}
	if cfg.SQLiteDSN != "" || !isMemoryPath(cfg.SQLitePath) {
		return p
	}
	pinned := poolSettings{maxOpen: 1, maxIdle: 1}
	if p != pinned {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("in-memory sqlite needs a single long-lived connection; overriding pool settings",
			"maxOpenConns", p.maxOpen,
			"maxIdleConns", p.maxIdle,
			"connMaxLifetime", p.maxLifetime,
		)
	}
	return pinned
}

func applyPool(db *sql.DB, p poolSettings) {
	if p.maxOpen > 0 {
		db.SetMaxOpenConns(p.maxOpen)
	}
	if p.maxIdle >= 0 {
		db.SetMaxIdleConns(p.maxIdle)
	}
	if p.maxLifetime > 0 {
		db.SetConnMaxLifetime(p.maxLifetime)
	}
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

func isMemoryPath(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, "file::memory:")
}

func buildDSN(cfg config.Config) (string, error) {
	if cfg.SQLiteDSN != "" {
		return cfg.SQLiteDSN, nil
	}

	path := cfg.SQLitePath
	params := []string{
		"_foreign_keys=on",
		"_busy_timeout=5000",
	}

	if isMemoryPath(path) {
		if strings.HasPrefix(path, "file:") {
			return appendParams(path, params), nil
		}
		return "file::memory:?" + strings.Join(params, "&"), nil
	}

	// Ensure directory exists for file-backed sqlite db
	dir := filepath.Dir(strings.TrimPrefix(path, "file:"))
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	params = append(params, "_journal_mode=WAL")

	if strings.HasPrefix(path, "file:") {
		return appendParams(path, params), nil
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}

func appendParams(dsn string, params []string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}
