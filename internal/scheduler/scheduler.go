package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"sms-bridge/internal/metrics"
)

// Counter reports how many records the metadata store holds.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Scheduler runs background jobs for the bridge.
type Scheduler struct {
	cron      *cron.Cron
	store     Counter
	threshold int
	logger    zerolog.Logger
}

// NewScheduler creates a scheduler that watches store growth on schedule.
// A warning is logged whenever the store holds more than threshold records;
// nothing is capped or rotated.
func NewScheduler(store Counter, schedule string, threshold int, logger zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:      cron.New(),
		store:     store,
		threshold: threshold,
		logger:    logger.With().Str("component", "scheduler").Logger(),
	}
	if _, err := s.cron.AddFunc(schedule, s.WatchStore); err != nil {
		return nil, fmt.Errorf("invalid watch schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// WatchStore updates the stored-records gauge and warns above the threshold.
func (s *Scheduler) WatchStore() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	n, err := s.store.Count(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("store growth check failed")
		return
	}
	metrics.StoredRecords.Set(float64(n))

	if s.threshold > 0 && n > s.threshold {
		s.logger.Warn().
			Int("stored", n).
			Int("threshold", s.threshold).
			Msg("stored sms not drained; store keeps growing")
		return
	}
	s.logger.Debug().Int("stored", n).Msg("store growth checked")
}
