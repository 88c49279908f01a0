package actionable

import (
	"strings"
	"testing"
	"time"

	"github.com/swingscan/swingscan/internal/contracts"
	"github.com/swingscan/swingscan/pkg/logger"
)

func fptr(v float64) *float64 { return &v }

// goodSignal passes every default gate: entry 100, stop 95, target 120.
func goodSignal() contracts.Signal {
	return contracts.Signal{
		Symbol:             "GOOD",
		Price:              100,
		Score:              85,
		RSISlope:           contracts.SlopeRising,
		VolumeRatio:        fptr(1.8),
		AvgDollarVolume20D: fptr(50_000_000),
		ATR:                2,
		SuggestedEntry:     100,
		SuggestedStop:      95,
		SuggestedTarget:    120,
		RiskReward:         4,
	}
}

func TestApplySizingArithmetic(t *testing.T) {
	// Account $10k at 1% risk is a $100 budget; $5 risk/share gives
	// 20 shares, $100 risk, $400 reward.
	f := NewFilter(DefaultConfig(), logger.Nop())

	acts, rejs := f.Apply([]contracts.Signal{goodSignal()}, nil)
	if len(rejs) != 0 {
		t.Fatalf("Unexpected rejections: %+v", rejs)
	}
	if len(acts) != 1 {
		t.Fatalf("Expected 1 actionable, got %d", len(acts))
	}

	act := acts[0]
	if act.PositionSizeShares != 20 {
		t.Errorf("PositionSizeShares = %d, want 20", act.PositionSizeShares)
	}
	if act.RiskDollars != 100 {
		t.Errorf("RiskDollars = %v, want 100", act.RiskDollars)
	}
	if act.RewardDollars != 400 {
		t.Errorf("RewardDollars = %v, want 400", act.RewardDollars)
	}
}

func TestApplyAccumulatesAllReasons(t *testing.T) {
	f := NewFilter(DefaultConfig(), logger.Nop())

	sig := goodSignal()
	sig.Price = 3
	sig.RiskReward = 1
	sig.RSISlope = contracts.SlopeFalling
	sig.AvgDollarVolume20D = fptr(1_000_000)

	_, rejs := f.Apply([]contracts.Signal{sig}, nil)
	if len(rejs) != 1 {
		t.Fatalf("Expected 1 rejection, got %d", len(rejs))
	}

	reasons := strings.Join(rejs[0].RejectionReasons, "; ")
	for _, want := range []string{"Price", "dollar volume", "R/R", "RSI slope falling"} {
		if !strings.Contains(reasons, want) {
			t.Errorf("Reasons missing %q: %s", want, reasons)
		}
	}
	if len(rejs[0].RejectionReasons) < 4 {
		t.Errorf("Expected at least 4 reasons, got %d", len(rejs[0].RejectionReasons))
	}
}

func TestTinyAccountRejectsSubShare(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AccountSize = 100 // $1 budget against $5 risk/share
	f := NewFilter(cfg, logger.Nop())

	_, rejs := f.Apply([]contracts.Signal{goodSignal()}, nil)
	if len(rejs) != 1 {
		t.Fatalf("Expected rejection, got %d", len(rejs))
	}
	if len(rejs[0].RejectionReasons) != 1 || rejs[0].RejectionReasons[0] != "Position size < 1 share" {
		t.Errorf("Reasons = %v, want the single sizing reason", rejs[0].RejectionReasons)
	}
}

func TestSizingRunsOnlyAfterGatesPass(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AccountSize = 100 // would also round to zero shares
	cfg.ATRMin = 5
	f := NewFilter(cfg, logger.Nop())

	sig := goodSignal()
	sig.ATR = 1

	_, rejs := f.Apply([]contracts.Signal{sig}, nil)
	if len(rejs) != 1 {
		t.Fatalf("Expected rejection, got %d", len(rejs))
	}

	reasons := strings.Join(rejs[0].RejectionReasons, "; ")
	if !strings.Contains(reasons, "ATR") {
		t.Errorf("Reasons missing ATR floor: %s", reasons)
	}
	if strings.Contains(reasons, "Position size") {
		t.Errorf("Sizing reason must not mix with gate reasons: %s", reasons)
	}
}

func TestMissingVolumeRatioFailsVolumeGate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinVolumeRatio = 1.2
	f := NewFilter(cfg, logger.Nop())

	sig := goodSignal()
	sig.VolumeRatio = nil

	_, rejs := f.Apply([]contracts.Signal{sig}, nil)
	if len(rejs) != 1 {
		t.Fatalf("Expected rejection, got %d", len(rejs))
	}
	if !strings.Contains(strings.Join(rejs[0].RejectionReasons, " "), "Volume ratio ? below minimum 1.20") {
		t.Errorf("Reasons = %v", rejs[0].RejectionReasons)
	}

	// Rising volume still exempts an unknown ratio
	base := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	rising := make([]contracts.Bar, 5)
	for i := range rising {
		rising[i] = contracts.Bar{
			Timestamp: base.AddDate(0, 0, i),
			Volume:    float64(1000 + i*100),
		}
	}
	acts, rejs := f.Apply([]contracts.Signal{sig}, map[string][]contracts.Bar{"GOOD": rising})
	if len(rejs) != 0 || len(acts) != 1 {
		t.Fatalf("Rising volume should exempt: %d actionable, %d rejected", len(acts), len(rejs))
	}
}

func TestVolumeRisingExemption(t *testing.T) {
	f := NewFilter(DefaultConfig(), logger.Nop())

	sig := goodSignal()
	sig.VolumeRatio = fptr(0.5)

	base := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	rising := make([]contracts.Bar, 5)
	for i := range rising {
		rising[i] = contracts.Bar{
			Timestamp: base.AddDate(0, 0, i),
			Volume:    float64(1000 + i*100),
		}
	}

	acts, rejs := f.Apply([]contracts.Signal{sig}, map[string][]contracts.Bar{"GOOD": rising})
	if len(rejs) != 0 {
		t.Fatalf("Rising volume should exempt the ratio floor: %+v", rejs)
	}
	if len(acts) != 1 {
		t.Fatal("Expected 1 actionable")
	}

	// Same ratio with no bar context fails the floor
	_, rejs = f.Apply([]contracts.Signal{sig}, nil)
	if len(rejs) != 1 {
		t.Fatal("Expected rejection without bar context")
	}
}

func TestDisabledFilterPassesEverything(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	f := NewFilter(cfg, logger.Nop())

	bad := goodSignal()
	bad.RiskReward = 0.1
	bad.RSISlope = contracts.SlopeFalling

	acts, rejs := f.Apply([]contracts.Signal{goodSignal(), bad}, nil)
	if len(acts) != 2 || len(rejs) != 0 {
		t.Fatalf("Disabled filter: %d actionable, %d rejected", len(acts), len(rejs))
	}
	if acts[0].Notes[0] != "Actionable filter disabled" {
		t.Errorf("Notes = %v", acts[0].Notes)
	}
}

func TestNotes(t *testing.T) {
	f := NewFilter(DefaultConfig(), logger.Nop())

	sig := goodSignal()
	sig.HistogramRisingBars = 2
	sig.DistanceToPivotPct = fptr(1.3)
	notes := f.notes(sig)

	joined := strings.Join(notes, "; ")
	for _, want := range []string{"High score", "RSI rising", "RSI slope OK", "Volume breakout", "MACD hist +2bars", "High R/R", "Near pivot high"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Notes missing %q: %s", want, joined)
		}
	}

	flat := goodSignal()
	flat.RSISlope = contracts.SlopeFlat
	joined = strings.Join(f.notes(flat), "; ")
	for _, want := range []string{"RSI flat", "RSI slope OK"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Flat-slope notes missing %q: %s", want, joined)
		}
	}

	plain := contracts.Signal{Score: 62, RSISlope: contracts.SlopeFalling, RiskReward: 2}
	if got := f.notes(plain); len(got) != 1 || got[0] != "Clean trend" {
		t.Errorf("Fallback notes = %v", got)
	}
}
