package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shenal-anthony/TMS-sub000/internal/metrics"
	"github.com/sirupsen/logrus"
)

// StaleOfferSweeper deletes unanswered offers sent before cutoff
type StaleOfferSweeper interface {
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// CronService manages scheduled background jobs
type CronService struct {
	cron     *cron.Cron
	offers   StaleOfferSweeper
	offerTTL time.Duration
	spec     string
	logger   *logrus.Logger
	now      func() time.Time
}

// NewCronService creates a new CronService. spec uses the six-field format with seconds.
func NewCronService(offers StaleOfferSweeper, offerTTL time.Duration, spec string, logger *logrus.Logger) *CronService {
	return &CronService{
		cron:     cron.New(cron.WithSeconds()),
		offers:   offers,
		offerTTL: offerTTL,
		spec:     spec,
		logger:   logger,
		now:      time.Now,
	}
}

// Start schedules the jobs and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.sweepStaleOffersJob); err != nil {
		return fmt.Errorf("failed to schedule stale offer sweep: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"spec":      s.spec,
		"offer_ttl": s.offerTTL.String(),
	}).Info("Scheduled stale guide offer sweep")

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) sweepStaleOffersJob() {
	if _, err := s.SweepStaleOffers(context.Background()); err != nil {
		s.logger.WithError(err).Error("Stale offer sweep failed")
	}
}

// SweepStaleOffers removes offers older than the configured TTL that were never accepted
func (s *CronService) SweepStaleOffers(ctx context.Context) (int64, error) {
	startTime := s.now()
	cutoff := startTime.Add(-s.offerTTL)

	removed, err := s.offers.DeleteStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	metrics.RecordStaleOffersSwept(removed)
	s.logger.WithFields(logrus.Fields{
		"removed":  removed,
		"cutoff":   cutoff.Format(time.RFC3339),
		"duration": time.Since(startTime).String(),
	}).Info("Swept stale guide offers")

	return removed, nil
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
