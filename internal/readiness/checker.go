// Package readiness decides whether a scan run makes sense right now:
// which session the data should cover, whether the market is even open
// today, and whether this exact scan already ran for that session.
package readiness

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/swingscan/swingscan/pkg/logger"
)

// Scan readiness statuses.
const (
	StatusReady   = "READY"   // trading day, session closed, first run
	StatusEarly   = "EARLY"   // market still open, bars cover yesterday
	StatusHoliday = "HOLIDAY" // non-trading day, bars cover last session
	StatusReRun   = "RE_RUN"  // this scan already ran for this session
	StatusStale   = "STALE"   // fetched bars older than the expected session
)

// Result is the readiness verdict. CanRun is advisory; callers may
// force a run regardless.
type Result struct {
	Status          string    `json:"status"`
	Message         string    `json:"message"`
	CanRun          bool      `json:"can_run"`
	ExpectedSession time.Time `json:"expected_session"`
}

// Checker evaluates run readiness against the NYSE calendar and a
// small on-disk run history.
type Checker struct {
	historyPath string
	calendar    Calendar
	logger      *logger.Logger
	now         func() time.Time
	loc         *time.Location
}

// NewChecker creates a readiness checker persisting run history at
// historyPath.
func NewChecker(historyPath string, log *logger.Logger) *Checker {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// Falls back to fixed EST; only the open/close boundary shifts
		// by an hour half the year.
		loc = time.FixedZone("EST", -5*3600)
	}
	return &Checker{
		historyPath: historyPath,
		logger:      log,
		now:         time.Now,
		loc:         loc,
	}
}

// ExpectedSession returns the most recent session whose close (16:00
// ET) has passed.
func (c *Checker) ExpectedSession() time.Time {
	now := c.now().In(c.loc)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc)

	if !c.calendar.IsTradingDay(day) || now.Hour() < 16 {
		return c.calendar.PrevTradingDay(day)
	}
	return day
}

// Check evaluates readiness for one scan identity. The key should
// distinguish universe and configuration so different scans do not
// shadow each other in the run history.
func (c *Checker) Check(key string) Result {
	now := c.now().In(c.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc)
	session := c.ExpectedSession()

	res := Result{ExpectedSession: session, CanRun: true}

	switch {
	case !c.calendar.IsTradingDay(today):
		res.Status = StatusHoliday
		res.Message = fmt.Sprintf("Market closed today; using last session %s",
			session.Format("2006-01-02"))
	case now.Hour() < 16:
		res.Status = StatusEarly
		res.Message = fmt.Sprintf("Market still open; bars cover %s",
			session.Format("2006-01-02"))
	default:
		res.Status = StatusReady
		res.Message = fmt.Sprintf("Session %s closed", session.Format("2006-01-02"))
	}

	if last, ok := c.lastRun(key); ok && last.Session.Equal(session) {
		res.Status = StatusReRun
		res.Message = fmt.Sprintf("Already scanned session %s at %s",
			session.Format("2006-01-02"), last.RanAt.Format(time.RFC3339))
	}

	return res
}

// AssessData compares the freshest fetched bar against the expected
// session and downgrades the result when the data lags behind.
func (c *Checker) AssessData(res Result, lastBar time.Time) Result {
	if lastBar.IsZero() {
		return res
	}

	barDay := lastBar.In(c.loc)
	barDay = time.Date(barDay.Year(), barDay.Month(), barDay.Day(), 0, 0, 0, 0, c.loc)

	if barDay.Before(res.ExpectedSession) {
		res.Status = StatusStale
		res.Message = fmt.Sprintf("Latest bar %s predates expected session %s",
			barDay.Format("2006-01-02"), res.ExpectedSession.Format("2006-01-02"))
	}
	return res
}

// RecordRun persists that a scan ran for the expected session.
func (c *Checker) RecordRun(key string) error {
	history, err := c.load()
	if err != nil {
		c.logger.WithError(err).Warn("Resetting unreadable scan history")
		history = map[string]runRecord{}
	}

	history[key] = runRecord{
		Session: c.ExpectedSession(),
		RanAt:   c.now().UTC(),
	}

	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("encode scan history: %w", err)
	}

	if dir := filepath.Dir(c.historyPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history dir: %w", err)
		}
	}
	if err := os.WriteFile(c.historyPath, data, 0o644); err != nil {
		return fmt.Errorf("write scan history: %w", err)
	}
	return nil
}

type runRecord struct {
	Session time.Time `json:"session"`
	RanAt   time.Time `json:"ran_at"`
}

func (c *Checker) lastRun(key string) (runRecord, bool) {
	history, err := c.load()
	if err != nil {
		c.logger.WithError(err).Warn("Ignoring unreadable scan history")
		return runRecord{}, false
	}
	rec, ok := history[key]
	return rec, ok
}

func (c *Checker) load() (map[string]runRecord, error) {
	data, err := os.ReadFile(c.historyPath)
	if os.IsNotExist(err) {
		return map[string]runRecord{}, nil
	}
	if err != nil {
		return nil, err
	}

	var history map[string]runRecord
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("decode scan history: %w", err)
	}
	return history, nil
}
