package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/swingscan/swingscan/internal/contracts"
	"github.com/swingscan/swingscan/internal/export"
	"github.com/swingscan/swingscan/internal/notify"
	"github.com/swingscan/swingscan/pkg/logger"
)

// ExportPaths names the optional output files of a run.
type ExportPaths struct {
	JSON string
	CSV  string
}

// Runner executes complete scan runs: scan, export, notify, remember
// the latest result and fan it out to subscribers. The API server and
// the cron worker both drive runs through it, so only one run is in
// flight at a time.
type Runner struct {
	scanner  *Scanner
	symbols  []string
	exporter *export.Exporter
	paths    ExportPaths
	notifier *notify.Telegram
	logger   *logger.Logger

	runMu sync.Mutex

	mu        sync.RWMutex
	last      *contracts.ScanResult
	listeners []func(*contracts.ScanResult)
}

// NewRunner creates a runner. exporter and notifier may be nil.
func NewRunner(
	s *Scanner,
	symbols []string,
	exporter *export.Exporter,
	paths ExportPaths,
	notifier *notify.Telegram,
	log *logger.Logger,
) *Runner {
	return &Runner{
		scanner:  s,
		symbols:  symbols,
		exporter: exporter,
		paths:    paths,
		notifier: notifier,
		logger:   log,
	}
}

// Subscribe registers a callback invoked after every successful run.
// Not safe to call concurrently with Run.
func (r *Runner) Subscribe(fn func(*contracts.ScanResult)) {
	r.listeners = append(r.listeners, fn)
}

// Last returns the most recent result, or nil before the first run.
func (r *Runner) Last() *contracts.ScanResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// Run executes one complete scan run.
func (r *Runner) Run(ctx context.Context) (*contracts.ScanResult, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	started := time.Now()
	result, err := r.scanner.Scan(ctx, r.symbols)
	scanDuration.Observe(time.Since(started).Seconds())

	if err != nil {
		scansTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("scan run failed: %w", err)
	}

	scansTotal.WithLabelValues("ok").Inc()
	symbolsScanned.Add(float64(result.ScannedCount))
	signalsEmitted.Add(float64(result.PassedCount))
	actionableEmitted.Add(float64(result.ActionableCount))

	r.mu.Lock()
	r.last = result
	r.mu.Unlock()

	r.postProcess(ctx, result)

	for _, fn := range r.listeners {
		fn(result)
	}
	return result, nil
}

// postProcess exports and notifies. Failures here are logged, never
// fatal: the scan itself succeeded.
func (r *Runner) postProcess(ctx context.Context, result *contracts.ScanResult) {
	if r.exporter != nil && r.paths.JSON != "" {
		if err := r.exporter.WriteJSON(result, r.paths.JSON); err != nil {
			r.logger.WithError(err).Error("JSON export failed")
		}
	}
	if r.exporter != nil && r.paths.CSV != "" {
		if err := r.exporter.WriteCSV(result, r.paths.CSV); err != nil {
			r.logger.WithError(err).Error("CSV export failed")
		}
	}
	if r.notifier != nil {
		if err := r.notifier.SendScanResult(ctx, result); err != nil {
			r.logger.WithError(err).Error("Telegram notification failed")
		}
	}
}
