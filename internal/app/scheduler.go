/**
 * @description
 * Cron scheduler that refreshes the stored-address gauges.
 */
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wangpengwen/payid/internal/domain"
)

const refreshTimeout = 30 * time.Second

// AddressCounter reports how many addresses are stored per network and environment.
type AddressCounter interface {
	CountAddresses(ctx context.Context) ([]domain.AddressCount, error)
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron     *cron.Cron
	counter  AddressCounter
	metrics  *Metrics
	logger   *slog.Logger
	schedule string
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(counter AddressCounter, metrics *Metrics, logger *slog.Logger, schedule string) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:     c,
		counter:  counter,
		metrics:  metrics,
		logger:   logger,
		schedule: schedule,
	}
}

// Start registers the refresh job, runs it once and starts the cron scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.RefreshAddressCounts); err != nil {
		s.logger.Error("failed to schedule address count refresh", "schedule", s.schedule, "error", err)
		return err
	}
	s.logger.Info("scheduled address count refresh", "schedule", s.schedule)

	s.RefreshAddressCounts()
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RefreshAddressCounts loads the current counts into the metrics.
func (s *Scheduler) RefreshAddressCounts() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	counts, err := s.counter.CountAddresses(ctx)
	if err != nil {
		s.logger.Error("failed to count stored addresses", "error", err)
		return
	}
	s.metrics.SetAddressCounts(counts)
	s.logger.Debug("refreshed address counts", "series", len(counts))
}
