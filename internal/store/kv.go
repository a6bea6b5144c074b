package store

import (
	"context"
	"fmt"

	"sms-bridge/internal/apperr"
)

// Batch is a set of writes applied together by KV.Commit.
type Batch struct {
	Puts    map[string]string
	Deletes []string
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{Puts: make(map[string]string)}
}

// Put schedules key=value.
func (b *Batch) Put(key, value string) *Batch {
	b.Puts[key] = value
	return b
}

// Delete schedules removal of key.
func (b *Batch) Delete(key string) *Batch {
	b.Deletes = append(b.Deletes, key)
	return b
}

// KV is a namespace-scoped string store with atomic multi-key commit.
// Both the local metadata store and its tests run against this interface.
type KV interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Commit applies every put and delete of b atomically.
	Commit(ctx context.Context, b *Batch) error

	Ping(ctx context.Context) error
	Close() error
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, apperr.ErrStorage, err)
}
