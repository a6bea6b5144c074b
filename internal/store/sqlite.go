package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteKV stores the namespace in a local SQLite database.
type SQLiteKV struct {
	db        *sql.DB
	namespace string
}

// NewSQLiteKV opens (and creates if needed) the database at dbPath.
// If dbPath is empty, defaults to "./data/sms-bridge.db"
func NewSQLiteKV(ctx context.Context, dbPath, namespace string) (*SQLiteKV, error) {
	if dbPath == "" {
		dbPath = "./data/sms-bridge.db"
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, storageErr("create data directory", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, storageErr("open sqlite", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, storageErr("ping sqlite", err)
	}

	kv := &SQLiteKV{db: db, namespace: namespace}
	if err := kv.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return kv, nil
}

func (s *SQLiteKV) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		namespace TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (namespace, key)
	);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return storageErr("init sqlite schema", err)
	}
	return nil
}

func (s *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE namespace = ? AND key = ?`, s.namespace, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, storageErr("sqlite get", err)
	}
	return value, true, nil
}

func (s *SQLiteKV) Commit(ctx context.Context, b *Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("sqlite begin", err)
	}
	defer tx.Rollback()

	for _, k := range b.Deletes {
		if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE namespace = ? AND key = ?`, s.namespace, k); err != nil {
			return storageErr("sqlite delete", err)
		}
	}
	for k, v := range b.Puts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO kv (namespace, key, value) VALUES (?, ?, ?)
			ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value
		`, s.namespace, k, v)
		if err != nil {
			return storageErr("sqlite put", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("sqlite commit", err)
	}
	return nil
}

func (s *SQLiteKV) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteKV) Close() error {
	return s.db.Close()
}
