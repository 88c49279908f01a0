// Package scheduler runs recurring scans on a cron schedule. Schedules
// are interpreted in US Eastern time so "30 16 * * 1-5" always means
// half an hour after the close, regardless of host timezone.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/swingscan/swingscan/pkg/logger"
)

// Default schedule: weekdays at 16:30 ET, after the session close.
const DefaultSpec = "30 16 * * 1-5"

const jobTimeout = 15 * time.Minute

// Job is a named unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler wraps the cron runner with logging, timeouts and panic
// isolation per job.
type Scheduler struct {
	cron   *cron.Cron
	logger *logger.Logger
}

// New creates a scheduler anchored to US Eastern time.
func New(log *logger.Logger) *Scheduler {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
		log.WithError(err).Warn("Eastern timezone unavailable, scheduling in UTC")
	}

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		logger: log,
	}
}

// Register schedules a job. Accepts standard five-field cron syntax
// plus the @every descriptors.
func (s *Scheduler) Register(spec string, job Job) error {
	id, err := s.cron.AddFunc(spec, func() {
		s.runJob(job)
	})
	if err != nil {
		return fmt.Errorf("register job %s: %w", job.Name(), err)
	}

	s.logger.WithFields(map[string]interface{}{
		"job":  job.Name(),
		"spec": spec,
		"id":   int(id),
	}).Info("Job scheduled")
	return nil
}

// runJob executes one job occurrence. A panicking job is logged and
// contained; the schedule keeps firing.
func (s *Scheduler) runJob(job Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithFields(map[string]interface{}{
				"job":   job.Name(),
				"panic": fmt.Sprint(r),
			}).Error("Job panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	started := time.Now()
	s.logger.WithField("job", job.Name()).Info("Job started")

	if err := job.Run(ctx); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"job":      job.Name(),
			"duration": time.Since(started).String(),
		}).WithError(err).Error("Job failed")
		return
	}

	s.logger.WithFields(map[string]interface{}{
		"job":      job.Name(),
		"duration": time.Since(started).String(),
	}).Info("Job completed")
}

// Start begins firing schedules in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started")
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}
