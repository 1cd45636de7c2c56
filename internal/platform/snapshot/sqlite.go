// Package snapshot persists the in-memory stores to a single SQLite file.
// Each registered bucket is stored as one JSON blob and rewritten after every
// successful transaction; the whole state is reloaded on startup.
package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Bucket is a store whose full contents can be exported and restored.
type Bucket interface {
	ExportSnapshot() ([]byte, error)
	ImportSnapshot(data []byte) error
}

type Store struct {
	db      *sql.DB
	path    string
	mu      sync.Mutex
	names   []string
	buckets map[string]Bucket
}

// Open creates the file and state table if needed.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = "arbor.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; SQLite serializes anyway and this avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &Store{db: db, path: path, buckets: map[string]Bucket{}}, nil
}

// Register adds a bucket. Call before Load.
func (s *Store) Register(name string, b Bucket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.buckets[name]; !exists {
		s.names = append(s.names, name)
	}
	s.buckets[name] = b
}

// Load restores every registered bucket found in the file. Unknown buckets are ignored.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			name    string
			payload []byte
		)
		if err := rows.Scan(&name, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		b, ok := s.buckets[name]
		if !ok {
			continue
		}
		if err := b.ImportSnapshot(payload); err != nil {
			return fmt.Errorf("decode %s: %w", name, err)
		}
	}
	return rows.Err()
}

// Persist rewrites every bucket in one SQLite transaction.
func (s *Store) Persist(ctx context.Context) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	for _, name := range s.names {
		data, err := s.buckets[name].ExportSnapshot()
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`,
			name, data); err != nil {
			return fmt.Errorf("upsert %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

func (s *Store) Close() error { return s.db.Close() }
