// Package store keeps probe outcomes in SQLite so repeated validate runs can skip
// mirrors that were checked recently.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/snapetech/iptvmirror/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS probe_results (
	url         TEXT PRIMARY KEY,
	valid       INTEGER NOT NULL,
	status_code INTEGER NOT NULL,
	checked_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS probe_results_checked_at ON probe_results(checked_at);
`

// Entry is one cached probe outcome.
type Entry struct {
	URL        string
	Valid      bool
	StatusCode int
	CheckedAt  time.Time
}

// Cache is the probe cache. A nil *Cache is a disabled cache.
type Cache struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (creating if needed) the cache database at path.
// An empty path returns a nil cache and no error.
func Open(path string) (*Cache, error) {
	if path == "" {
		return nil, nil
	}
	path = filepath.Clean(path)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("probe cache dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open probe cache: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("probe cache schema: %w", err)
	}
	return &Cache{db: db, log: logging.Component("store")}, nil
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}

// Get reports the cached outcome for url. fresh is false when there is no row,
// the row is older than ttl, or the lookup failed.
func (c *Cache) Get(ctx context.Context, url string, ttl time.Duration) (valid, fresh bool) {
	if c == nil {
		return false, false
	}
	var v, checked int64
	err := c.db.QueryRowContext(ctx,
		`SELECT valid, checked_at FROM probe_results WHERE url = ?`, url).Scan(&v, &checked)
	if err != nil {
		if err != sql.ErrNoRows {
			c.log.Debug().Err(err).Str("url", url).Msg("cache lookup failed")
		}
		return false, false
	}
	if time.Since(time.Unix(checked, 0)) > ttl {
		return false, false
	}
	return v == 1, true
}

// PutResults upserts entries in one transaction.
func (c *Cache) PutResults(ctx context.Context, entries []Entry) error {
	if c == nil || len(entries) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("probe cache begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO probe_results (url, valid, status_code, checked_at) VALUES (?, ?, ?, ?)
ON CONFLICT(url) DO UPDATE SET valid = excluded.valid, status_code = excluded.status_code, checked_at = excluded.checked_at`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("probe cache prepare: %w", err)
	}
	defer stmt.Close()
	for _, e := range entries {
		at := e.CheckedAt
		if at.IsZero() {
			at = time.Now()
		}
		valid := 0
		if e.Valid {
			valid = 1
		}
		if _, err := stmt.ExecContext(ctx, e.URL, valid, e.StatusCode, at.Unix()); err != nil {
			tx.Rollback()
			return fmt.Errorf("probe cache insert %s: %w", e.URL, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("probe cache commit: %w", err)
	}
	return nil
}

// Prune deletes rows checked more than olderThan ago and returns how many went.
func (c *Cache) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if c == nil {
		return 0, nil
	}
	cutoff := time.Now().Add(-olderThan).Unix()
	res, err := c.db.ExecContext(ctx, `DELETE FROM probe_results WHERE checked_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("probe cache prune: %w", err)
	}
	return res.RowsAffected()
}
