// Package store implements the local metadata store: a counter-indexed
// key-value namespace that holds bank SMS captured by the broadcast listener
// until the host drains and clears them.
//
// Layout inside the namespace:
//
//	new_sms_count -> next free index N
//	sms_0 .. sms_<N-1> -> one JSON encoded models.Record each
//
// Every operation is executed by a single owner goroutine, so concurrent
// appends can never lose an update on the shared counter. Each mutation
// writes its entry keys and the counter in one KV.Commit.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"sms-bridge/internal/apperr"
	"sms-bridge/internal/metrics"
	"sms-bridge/internal/models"
)

const (
	// DefaultNamespace matches the preference file name used on the device.
	DefaultNamespace = "sms_sync_prefs"

	countKey    = "new_sms_count"
	entryPrefix = "sms_"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("metadata store closed")

func entryKey(i int) string {
	return entryPrefix + strconv.Itoa(i)
}

type request struct {
	ctx   context.Context
	fn    func(ctx context.Context) error
	reply chan error
}

// MetadataStore serializes all access to the namespace through one goroutine.
type MetadataStore struct {
	kv     KV
	logger zerolog.Logger

	reqs      chan request
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewMetadataStore starts the owner goroutine over kv.
func NewMetadataStore(kv KV, logger zerolog.Logger) *MetadataStore {
	s := &MetadataStore{
		kv:      kv,
		logger:  logger.With().Str("component", "store").Logger(),
		reqs:    make(chan request),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *MetadataStore) run() {
	defer close(s.stopped)
	for {
		select {
		case <-s.done:
			return
		case req := <-s.reqs:
			req.reply <- req.fn(req.ctx)
		}
	}
}

// do hands fn to the owner goroutine and waits for its result.
func (s *MetadataStore) do(ctx context.Context, fn func(ctx context.Context) error) error {
	req := request{ctx: ctx, fn: fn, reply: make(chan error, 1)}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	case s.reqs <- req:
	}
	return <-req.reply
}

// count must only be called from the owner goroutine.
func (s *MetadataStore) count(ctx context.Context) (int, error) {
	raw, ok, err := s.kv.Get(ctx, countKey)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("counter %q is not a valid index: %w", raw, apperr.ErrStorage)
	}
	return n, nil
}

// Append stores r under the next free index and returns that index.
func (s *MetadataStore) Append(ctx context.Context, r models.Record) (int, error) {
	var index int
	err := s.do(ctx, func(ctx context.Context) error {
		n, err := s.count(ctx)
		if err != nil {
			return err
		}
		value, err := encodeRecord(r)
		if err != nil {
			return err
		}
		batch := NewBatch().
			Put(entryKey(n), value).
			Put(countKey, strconv.Itoa(n+1))
		if err := s.kv.Commit(ctx, batch); err != nil {
			return err
		}
		index = n
		metrics.StoredRecords.Set(float64(n + 1))
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Debug().Int("index", index).Str("id", r.ID).Msg("record appended")
	return index, nil
}

// ReadAll returns every stored record in index order. Missing or
// undecodable entries are skipped.
func (s *MetadataStore) ReadAll(ctx context.Context) ([]models.Record, error) {
	records, _, err := s.Snapshot(ctx)
	return records, err
}

// Snapshot is ReadAll that also returns how many indices were read. Passing
// that number to ClearThrough removes exactly what the snapshot saw.
func (s *MetadataStore) Snapshot(ctx context.Context) ([]models.Record, int, error) {
	var (
		records []models.Record
		upto    int
	)
	err := s.do(ctx, func(ctx context.Context) error {
		n, err := s.count(ctx)
		if err != nil {
			return err
		}
		records = make([]models.Record, 0, n)
		for i := 0; i < n; i++ {
			raw, ok, err := s.kv.Get(ctx, entryKey(i))
			if err != nil {
				return err
			}
			if !ok {
				s.logger.Warn().Int("index", i).Msg("stored record missing, skipping")
				continue
			}
			r, err := decodeRecord(raw)
			if err != nil {
				s.logger.Warn().Err(err).Int("index", i).Msg("stored record undecodable, skipping")
				continue
			}
			records = append(records, r)
		}
		upto = n
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return records, upto, nil
}

// ClearThrough removes the entries at indices 0..n-1 and shifts the ones
// appended after them down to index 0, all in one commit. n larger than the
// counter clears everything. It returns the number of indices removed.
func (s *MetadataStore) ClearThrough(ctx context.Context, n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("clear through %d: %w", n, apperr.ErrInvalidInput)
	}

	var removed, remaining int
	err := s.do(ctx, func(ctx context.Context) error {
		total, err := s.count(ctx)
		if err != nil {
			return err
		}
		if n > total {
			n = total
		}

		batch := NewBatch()
		for i := n; i < total; i++ {
			raw, ok, err := s.kv.Get(ctx, entryKey(i))
			if err != nil {
				return err
			}
			if ok {
				batch.Put(entryKey(i-n), raw)
			} else {
				batch.Delete(entryKey(i - n))
			}
		}
		for i := total - n; i < total; i++ {
			batch.Delete(entryKey(i))
		}
		batch.Put(countKey, strconv.Itoa(total-n))
		if err := s.kv.Commit(ctx, batch); err != nil {
			return err
		}

		removed, remaining = n, total-n
		metrics.StoredRecords.Set(float64(remaining))
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info().Int("cleared", removed).Int("remaining", remaining).Msg("store cleared through index")
	return removed, nil
}

// Clear removes every stored record and resets the counter. It returns the
// number of indices that were cleared.
func (s *MetadataStore) Clear(ctx context.Context) (int, error) {
	var cleared int
	err := s.do(ctx, func(ctx context.Context) error {
		n, err := s.count(ctx)
		if err != nil {
			return err
		}
		batch := NewBatch()
		for i := 0; i < n; i++ {
			batch.Delete(entryKey(i))
		}
		batch.Put(countKey, "0")
		if err := s.kv.Commit(ctx, batch); err != nil {
			return err
		}
		cleared = n
		metrics.StoredRecords.Set(0)
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info().Int("cleared", cleared).Msg("store cleared")
	return cleared, nil
}

// Count returns the number of indices currently allocated.
func (s *MetadataStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.do(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.count(ctx)
		return err
	})
	return n, err
}

// Ping checks the underlying KV.
func (s *MetadataStore) Ping(ctx context.Context) error {
	return s.kv.Ping(ctx)
}

// Close stops the owner goroutine and closes the KV.
func (s *MetadataStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		<-s.stopped
		err = s.kv.Close()
	})
	return err
}
