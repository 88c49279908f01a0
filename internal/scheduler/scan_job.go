package scheduler

import (
	"context"

	"github.com/swingscan/swingscan/internal/scanner"
)

// ScanJob runs the shared scan runner on a schedule.
type ScanJob struct {
	runner *scanner.Runner
	name   string
}

// NewScanJob wraps a runner as a schedulable job.
func NewScanJob(name string, runner *scanner.Runner) *ScanJob {
	if name == "" {
		name = "scan"
	}
	return &ScanJob{runner: runner, name: name}
}

// Name implements Job.
func (j *ScanJob) Name() string { return j.name }

// Run implements Job.
func (j *ScanJob) Run(ctx context.Context) error {
	_, err := j.runner.Run(ctx)
	return err
}
