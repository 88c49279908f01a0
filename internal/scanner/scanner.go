// Package scanner orchestrates one scan run: fetch bars for the
// universe, evaluate every symbol, rank the signals and apply the
// actionable filter. One symbol failing never aborts the run.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/swingscan/swingscan/internal/actionable"
	"github.com/swingscan/swingscan/internal/contracts"
	"github.com/swingscan/swingscan/internal/providers"
	"github.com/swingscan/swingscan/internal/ranking"
	"github.com/swingscan/swingscan/internal/readiness"
	"github.com/swingscan/swingscan/internal/strategy"
	"github.com/swingscan/swingscan/pkg/logger"
)

const (
	defaultBarLimit    = 250
	defaultConcurrency = 5
	batchChunkSize     = 100
)

// Options tunes one scanner instance.
type Options struct {
	// Bars requested per symbol; 0 means 250
	BarLimit int

	// Ranked signals kept; 0 means all
	TopN int

	// Parallel single-symbol fetches; 0 means 5
	Concurrency int

	// Readiness bookkeeping; ignored when no checker is wired
	CheckReadiness bool
	RecordHistory  bool

	// Identity key for the run history
	HistoryKey string
}

// Scanner runs the full pipeline. Providers are tried in order; a
// vendor-level failure falls back to the next one.
type Scanner struct {
	providers []providers.Provider
	evaluator *strategy.Evaluator
	ranker    *ranking.Ranker
	filter    *actionable.Filter
	checker   *readiness.Checker
	logger    *logger.Logger
	opts      Options
}

// New creates a scanner. filter and checker may be nil to skip their
// stages.
func New(
	provs []providers.Provider,
	evaluator *strategy.Evaluator,
	ranker *ranking.Ranker,
	filter *actionable.Filter,
	checker *readiness.Checker,
	opts Options,
	log *logger.Logger,
) (*Scanner, error) {
	if len(provs) == 0 {
		return nil, fmt.Errorf("at least one data provider is required")
	}
	if opts.BarLimit <= 0 {
		opts.BarLimit = defaultBarLimit
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.HistoryKey == "" {
		opts.HistoryKey = "default"
	}

	return &Scanner{
		providers: provs,
		evaluator: evaluator,
		ranker:    ranker,
		filter:    filter,
		checker:   checker,
		opts:      opts,
		logger:    log,
	}, nil
}

// Scan runs the pipeline over the given symbols and returns the
// aggregate result. The error is non-nil only when no data could be
// fetched at all or the context was cancelled.
func (s *Scanner) Scan(ctx context.Context, symbols []string) (*contracts.ScanResult, error) {
	started := time.Now()

	result := &contracts.ScanResult{
		ScanTimestamp: started.UTC(),
		Universe:      symbols,
		Timeframe:     "1D",
		ScannedCount:  len(symbols),
	}

	var ready readiness.Result
	if s.checker != nil && s.opts.CheckReadiness {
		ready = s.checker.Check(s.opts.HistoryKey)
		s.applyReadiness(result, ready)
	}

	bars, prov, err := s.fetchAll(ctx, symbols)
	if err != nil {
		return nil, err
	}
	result.DataProvider = prov.Name()

	signals := make([]contracts.Signal, 0)
	var lastBar time.Time
	for _, symbol := range symbols {
		series, ok := bars[symbol]
		if !ok || len(series) == 0 {
			continue
		}
		if t := series[len(series)-1].Timestamp; t.After(lastBar) {
			lastBar = t
		}
		if sig := s.evaluator.Evaluate(symbol, series, nil); sig != nil {
			// Metadata is best effort and only fetched for symbols
			// that produced a signal
			sig.Meta = s.lookupMeta(ctx, prov, symbol)
			signals = append(signals, *sig)
		}
	}

	if !lastBar.IsZero() {
		result.LastBarTimestamp = &lastBar
	}

	ranked := s.ranker.Rank(signals)
	result.PassedCount = len(ranked)
	result.Signals = s.ranker.TopN(ranked, s.opts.TopN)

	if s.filter != nil {
		acts, rejs := s.filter.Apply(result.Signals, bars)
		result.ActionableSignals = acts
		result.RejectedSignals = rejs
		result.ActionableCount = len(acts)
	}

	if s.checker != nil && s.opts.CheckReadiness {
		s.applyReadiness(result, s.checker.AssessData(ready, lastBar))
	}
	if s.checker != nil && s.opts.RecordHistory {
		if err := s.checker.RecordRun(s.opts.HistoryKey); err != nil {
			s.logger.WithError(err).Warn("Failed to record scan history")
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"scanned":    result.ScannedCount,
		"passed":     result.PassedCount,
		"actionable": result.ActionableCount,
		"provider":   result.DataProvider,
		"duration":   time.Since(started).String(),
	}).Info("Scan completed")

	return result, nil
}

func (s *Scanner) applyReadiness(result *contracts.ScanResult, r readiness.Result) {
	result.ReadinessStatus = r.Status
	result.ReadinessMessage = r.Message
	canRun := r.CanRun
	result.ReadinessCanRun = &canRun
}

// fetchAll retrieves bars for every symbol, preferring batch vendors
// and falling back through the provider list on vendor-level failures.
// Returns the provider that served the data.
func (s *Scanner) fetchAll(ctx context.Context, symbols []string) (map[string][]contracts.Bar, providers.Provider, error) {
	var lastErr error

	for _, p := range s.providers {
		bars, err := s.fetchFrom(ctx, p, symbols)
		if err == nil {
			return bars, p, nil
		}
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}

		lastErr = err
		s.logger.WithFields(map[string]interface{}{
			"provider": p.Name(),
			"error":    err.Error(),
		}).Warn("Provider failed, trying next")
	}

	return nil, nil, fmt.Errorf("all providers failed: %w", lastErr)
}

// lookupMeta asks the serving vendor to describe a symbol. Failures
// degrade to no metadata.
func (s *Scanner) lookupMeta(ctx context.Context, p providers.Provider, symbol string) *contracts.TickerMeta {
	mp, ok := p.(providers.MetaProvider)
	if !ok {
		return nil
	}

	meta, err := mp.Meta(ctx, symbol)
	if err != nil {
		s.logger.WithField("symbol", symbol).WithError(err).Debug("Metadata lookup failed")
		return nil
	}
	return meta
}

func (s *Scanner) fetchFrom(ctx context.Context, p providers.Provider, symbols []string) (map[string][]contracts.Bar, error) {
	if bp, ok := p.(providers.BatchProvider); ok {
		return s.fetchBatched(ctx, bp, symbols)
	}
	return s.fetchPooled(ctx, p, symbols)
}

// fetchBatched splits the universe into vendor-sized chunks.
func (s *Scanner) fetchBatched(ctx context.Context, bp providers.BatchProvider, symbols []string) (map[string][]contracts.Bar, error) {
	out := make(map[string][]contracts.Bar, len(symbols))

	for start := 0; start < len(symbols); start += batchChunkSize {
		end := start + batchChunkSize
		if end > len(symbols) {
			end = len(symbols)
		}

		chunk, err := bp.DailyBarsBatch(ctx, symbols[start:end], s.opts.BarLimit)
		if err != nil {
			return nil, fmt.Errorf("batch fetch [%d:%d]: %w", start, end, err)
		}
		for symbol, bars := range chunk {
			out[symbol] = bars
		}
	}

	return out, nil
}

// fetchPooled fans symbols out over a bounded worker pool. Symbol-level
// misses are skipped; vendor-level errors abort so the caller can fall
// back.
func (s *Scanner) fetchPooled(ctx context.Context, p providers.Provider, symbols []string) (map[string][]contracts.Bar, error) {
	type fetched struct {
		symbol string
		bars   []contracts.Bar
		err    error
	}

	jobs := make(chan string)
	results := make(chan fetched)

	var wg sync.WaitGroup
	for i := 0; i < s.opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				bars, err := p.DailyBars(ctx, symbol, s.opts.BarLimit)
				results <- fetched{symbol: symbol, bars: bars, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, symbol := range symbols {
			select {
			case jobs <- symbol:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make(map[string][]contracts.Bar, len(symbols))
	var vendorErr error

	for r := range results {
		switch {
		case r.err == nil:
			out[r.symbol] = r.bars
		case errors.Is(r.err, providers.ErrSymbolNotFound):
			s.logger.WithField("symbol", r.symbol).Debug("Symbol unknown to vendor, skipping")
		default:
			if vendorErr == nil {
				vendorErr = r.err
			}
		}
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if vendorErr != nil && len(out) == 0 {
		return nil, vendorErr
	}
	if vendorErr != nil {
		// Partial result is still useful; log and continue.
		s.logger.WithError(vendorErr).Warn("Some symbols failed to fetch")
	}
	return out, nil
}
