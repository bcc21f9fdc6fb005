// Package database owns the SQLite store holding assets, allocations and actions.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure Go driver, registered as "sqlite"
)

//go:embed schemas/*.sql
var schemas embed.FS

const schemaFile = "schemas/rebalancer_schema.sql"

// DatabaseProfile selects the durability settings of a connection
type DatabaseProfile string

const (
	// ProfileStandard syncs at WAL checkpoints; fine for tests and previews
	ProfileStandard DatabaseProfile = "standard"
	// ProfileSafe syncs on every commit; the store is the only copy of the targets
	ProfileSafe DatabaseProfile = "safe"
)

// pragmas shared by every profile
var basePragmas = []string{"journal_mode(WAL)", "foreign_keys(1)", "busy_timeout(5000)"}

var profilePragmas = map[DatabaseProfile][]string{
	ProfileStandard: {"synchronous(NORMAL)"},
	ProfileSafe:     {"synchronous(FULL)"},
}

// Config holds database configuration
type Config struct {
	Path    string // file path, or a "file:" URI used as given
	Profile DatabaseProfile
	Name    string // label used in logs and errors
}

// Execer is satisfied by *sql.DB and *sql.Tx so repositories can write inside a transaction
type Execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// DB is an open store
type DB struct {
	conn    *sql.DB
	path    string
	profile DatabaseProfile
	name    string
}

// New opens the store, creating its directory, and verifies the connection
func New(cfg Config) (*DB, error) {
	if cfg.Profile == "" {
		cfg.Profile = ProfileStandard
	}
	if _, ok := profilePragmas[cfg.Profile]; !ok {
		return nil, fmt.Errorf("unknown database profile %q", cfg.Profile)
	}
	if cfg.Name == "" {
		cfg.Name = "rebalancer"
	}

	path, err := resolvePath(cfg.Path)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", dsn(path, cfg.Profile))
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Name, err)
	}

	// one writer; runs are serialized and the store is small
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxIdleTime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", cfg.Name, err)
	}

	return &DB{conn: conn, path: path, profile: cfg.Profile, name: cfg.Name}, nil
}

func resolvePath(path string) (string, error) {
	if strings.HasPrefix(path, "file:") {
		return path, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve database path %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return abs, nil
}

// dsn appends the profile's PRAGMAs in the modernc "_pragma" query form
func dsn(path string, profile DatabaseProfile) string {
	pragmas := append(append([]string{}, basePragmas...), profilePragmas[profile]...)
	return path + "?_pragma=" + strings.Join(pragmas, "&_pragma=")
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying connection for repositories
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Name returns the database label
func (db *DB) Name() string {
	return db.name
}

// Path returns the absolute database file path
func (db *DB) Path() string {
	return db.path
}

// Migrate applies the embedded schema. Every statement is idempotent, so it runs on
// every start and again from the initialize operation.
func (db *DB) Migrate() error {
	schema, err := schemas.ReadFile(schemaFile)
	if err != nil {
		return fmt.Errorf("failed to read embedded schema: %w", err)
	}

	return WithTransaction(db.conn, func(tx *sql.Tx) error {
		if _, err := tx.Exec(string(schema)); err != nil {
			return fmt.Errorf("failed to apply schema to %s: %w", db.name, err)
		}
		return nil
	})
}

// WithTransaction runs fn in a transaction, committing when it returns nil and
// rolling back when it fails or panics.
func WithTransaction(conn *sql.DB, fn func(*sql.Tx) error) (err error) {
	if conn == nil {
		return fmt.Errorf("database connection is nil")
	}

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("panic in transaction: %v", p)
			return
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("transaction failed: %w (rollback also failed: %v)", err, rbErr)
				return
			}
			err = fmt.Errorf("transaction failed: %w", err)
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	return fn(tx)
}

// HealthCheck pings the store and runs SQLite's quick integrity check
func (db *DB) HealthCheck(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed for %s: %w", db.name, err)
	}

	var result string
	if err := db.conn.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check query failed for %s: %w", db.name, err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed for %s: %s", db.name, result)
	}
	return nil
}

// Stats describes the on-disk size of the store
type Stats struct {
	Profile       DatabaseProfile `json:"profile"`
	SizeBytes     int64           `json:"size_bytes"`
	WALSizeBytes  int64           `json:"wal_size_bytes"`
	PageCount     int64           `json:"page_count"`
	PageSize      int64           `json:"page_size"`
	FreelistCount int64           `json:"freelist_count"`
}

// GetStats reads file sizes and page counters
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{Profile: db.profile}

	if info, err := os.Stat(db.path); err == nil {
		stats.SizeBytes = info.Size()
	}
	if info, err := os.Stat(db.path + "-wal"); err == nil {
		stats.WALSizeBytes = info.Size()
	}

	for pragma, dest := range map[string]*int64{
		"page_count":     &stats.PageCount,
		"page_size":      &stats.PageSize,
		"freelist_count": &stats.FreelistCount,
	} {
		if err := db.conn.QueryRow("PRAGMA " + pragma).Scan(dest); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", pragma, err)
		}
	}

	return stats, nil
}
