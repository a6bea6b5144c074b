package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresKV stores the namespace in a PostgreSQL table.
type PostgresKV struct {
	pool      *pgxpool.Pool
	namespace string
}

// NewPostgresKV connects to databaseURL and creates the sms_bridge_kv table if missing.
func NewPostgresKV(ctx context.Context, databaseURL, namespace string) (*PostgresKV, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, storageErr("connect postgres", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, storageErr("ping postgres", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sms_bridge_kv (
			namespace TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (namespace, key)
		)
	`)
	if err != nil {
		pool.Close()
		return nil, storageErr("init postgres schema", err)
	}

	return &PostgresKV{pool: pool, namespace: namespace}, nil
}

func (s *PostgresKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM sms_bridge_kv WHERE namespace = $1 AND key = $2`, s.namespace, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, storageErr("postgres get", err)
	}
	return value, true, nil
}

func (s *PostgresKV) Commit(ctx context.Context, b *Batch) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storageErr("postgres begin", err)
	}
	defer tx.Rollback(ctx)

	if len(b.Deletes) > 0 {
		_, err := tx.Exec(ctx,
			`DELETE FROM sms_bridge_kv WHERE namespace = $1 AND key = ANY($2)`, s.namespace, b.Deletes)
		if err != nil {
			return storageErr("postgres delete", err)
		}
	}
	for k, v := range b.Puts {
		_, err := tx.Exec(ctx, `
			INSERT INTO sms_bridge_kv (namespace, key, value) VALUES ($1, $2, $3)
			ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value
		`, s.namespace, k, v)
		if err != nil {
			return storageErr("postgres put", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return storageErr("postgres commit", err)
	}
	return nil
}

func (s *PostgresKV) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresKV) Close() error {
	s.pool.Close()
	return nil
}
