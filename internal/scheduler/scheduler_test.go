package scheduler

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCounter struct {
	n   int
	err error
}

func (c fixedCounter) Count(ctx context.Context) (int, error) { return c.n, c.err }

func TestNewScheduler_InvalidSchedule(t *testing.T) {
	_, err := NewScheduler(fixedCounter{}, "every tuesday", 10, zerolog.Nop())
	assert.ErrorContains(t, err, "invalid watch schedule")
}

func TestWatchStore_WarnsAboveThreshold(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewScheduler(fixedCounter{n: 11}, "@every 5m", 10, zerolog.New(&buf))
	require.NoError(t, err)

	s.WatchStore()
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"stored":11`)
}

func TestWatchStore_QuietAtThreshold(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewScheduler(fixedCounter{n: 10}, "@every 5m", 10, zerolog.New(&buf).Level(zerolog.InfoLevel))
	require.NoError(t, err)

	s.WatchStore()
	assert.Empty(t, buf.String())
}

func TestWatchStore_CountError(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewScheduler(fixedCounter{err: errors.New("redis down")}, "@every 5m", 10, zerolog.New(&buf))
	require.NoError(t, err)

	s.WatchStore()
	assert.Contains(t, buf.String(), "redis down")
}

func TestStartStop(t *testing.T) {
	s, err := NewScheduler(fixedCounter{}, "@every 1h", 0, zerolog.Nop())
	require.NoError(t, err)
	s.Start()
	s.Stop()
}
