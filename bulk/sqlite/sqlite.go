// Package sqlite stores bulk data blobs in a local SQLite database. Payloads
// are written as the msgpack bytes produced by the bulk package and keyed by
// their content reference, so identical uploads share one row.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jacentio/geoobject/bulk"
)

// Config holds configuration for the Store.
type Config struct {
	// Path is the database file. ":memory:" keeps the database in process.
	// Default: "geoobject-data.db"
	Path string

	// Table is the blob table name. Must be a plain SQL identifier.
	// Default: "geoobject_blobs"
	Table string

	// BusyTimeout is how long a writer waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration

	// MaxOpenConns limits concurrent connections. SQLite serializes writers,
	// so values above a handful rarely help.
	// Default: 1
	MaxOpenConns int
}

// DefaultConfig returns sensible defaults for a single-process tool.
func DefaultConfig() Config {
	return Config{
		Path:         "geoobject-data.db",
		Table:        "geoobject_blobs",
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 1,
	}
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() error {
	def := DefaultConfig()
	if c.Path == "" {
		c.Path = def.Path
	}
	if c.Table == "" {
		c.Table = def.Table
	}
	if !identifier.MatchString(c.Table) {
		return fmt.Errorf("invalid table name %q", c.Table)
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = def.BusyTimeout
	}
	if c.MaxOpenConns < 1 {
		c.MaxOpenConns = 1
	}
	return nil
}

// Store implements bulk.BlobStore on SQLite.
type Store struct {
	db     *sql.DB
	cfg    Config
	logger *slog.Logger

	put    string
	get    string
	delete string
}

// Open opens (creating if needed) the database described by cfg.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()),
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		ref TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		size INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	) WITHOUT ROWID;
	`, cfg.Table)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	logger.Debug("opened blob store", "path", cfg.Path, "table", cfg.Table)

	return &Store{
		db:     db,
		cfg:    cfg,
		logger: logger,
		put:    fmt.Sprintf("INSERT OR IGNORE INTO %s (ref, data, size, created_at) VALUES (?, ?, ?, ?)", cfg.Table),
		get:    fmt.Sprintf("SELECT data FROM %s WHERE ref = ?", cfg.Table),
		delete: fmt.Sprintf("DELETE FROM %s WHERE ref = ?", cfg.Table),
	}, nil
}

// NewClient opens a store and returns a data client over it. The caller owns
// the returned store and must Close it.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*bulk.DataClient, *Store, error) {
	s, err := Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return bulk.NewClient(s, s.logger), s, nil
}

// Put implements bulk.BlobStore. References are content addresses, so an
// existing row is left untouched.
func (s *Store) Put(ctx context.Context, ref string, data []byte) error {
	res, err := s.db.ExecContext(ctx, s.put, ref, data, len(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("put blob %s: %w", ref, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		s.logger.Debug("blob already stored", "ref", ref)
	}
	return nil
}

// Get implements bulk.BlobStore.
func (s *Store) Get(ctx context.Context, ref string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, s.get, ref).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", bulk.ErrNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", ref, err)
	}
	return data, nil
}

// Delete implements bulk.BlobStore. Deleting a missing blob is not an error.
func (s *Store) Delete(ctx context.Context, ref string) error {
	if _, err := s.db.ExecContext(ctx, s.delete, ref); err != nil {
		return fmt.Errorf("delete blob %s: %w", ref, err)
	}
	return nil
}

// Stats reports the number of blobs and their total size in bytes.
func (s *Store) Stats(ctx context.Context) (count int, size int64, err error) {
	q := fmt.Sprintf("SELECT COUNT(*), COALESCE(SUM(size), 0) FROM %s", s.cfg.Table)
	if err := s.db.QueryRowContext(ctx, q).Scan(&count, &size); err != nil {
		return 0, 0, fmt.Errorf("blob stats: %w", err)
	}
	return count, size, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
