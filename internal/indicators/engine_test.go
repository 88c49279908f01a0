package indicators

import (
	"testing"

	"github.com/swingscan/swingscan/pkg/logger"
)

func TestComputeFullSnapshot(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + 0.5*float64(i)
	}
	bars := makeBars(closes...)

	engine := NewEngine(logger.Nop())
	snap, err := engine.Compute(bars)
	if err != nil {
		t.Fatalf("Compute() failed: %v", err)
	}

	if !almostEqual(snap.Price, closes[len(closes)-1]) {
		t.Errorf("Price = %v, want %v", snap.Price, closes[len(closes)-1])
	}

	for name, v := range map[string]*float64{
		"SMA50":             snap.SMA50,
		"EMA9":              snap.EMA9,
		"EMA21":             snap.EMA21,
		"RSI":               snap.RSI,
		"MACD":              snap.MACD,
		"MACDSignal":        snap.MACDSignal,
		"MACDHistogram":     snap.MACDHistogram,
		"VolumeAvg20":       snap.VolumeAvg20,
		"DollarVolumeAvg20": snap.DollarVolumeAvg20,
		"ATR":               snap.ATR,
		"VolumeRatio":       snap.VolumeRatio,
	} {
		if v == nil {
			t.Errorf("%s should be defined with 80 bars", name)
		}
	}

	// Constant volume: ratio is exactly 1
	if snap.VolumeRatio != nil && !almostEqual(*snap.VolumeRatio, 1) {
		t.Errorf("VolumeRatio = %v, want 1", *snap.VolumeRatio)
	}

	if snap.LastBarTime != bars[len(bars)-1].Timestamp {
		t.Error("LastBarTime should be the final bar's timestamp")
	}
}

func TestComputeShortSeriesLeavesNils(t *testing.T) {
	bars := makeBars(100, 101, 102, 103, 104)

	engine := NewEngine(logger.Nop())
	snap, err := engine.Compute(bars)
	if err != nil {
		t.Fatalf("Compute() failed: %v", err)
	}

	if snap.SMA50 != nil {
		t.Error("SMA50 must be nil with 5 bars")
	}
	if snap.RSI != nil {
		t.Error("RSI must be nil with 5 bars")
	}
	// Pivot stats fall back to the whole series
	if !almostEqual(snap.PivotHigh, 105) {
		t.Errorf("PivotHigh = %v, want 105", snap.PivotHigh)
	}
	if !almostEqual(snap.RecentLow, 99) {
		t.Errorf("RecentLow = %v, want 99", snap.RecentLow)
	}
}

func TestComputeRejectsEmptyAndUnsorted(t *testing.T) {
	engine := NewEngine(logger.Nop())

	if _, err := engine.Compute(nil); err == nil {
		t.Error("Expected error for empty series")
	}

	bars := makeBars(100, 101)
	bars[0], bars[1] = bars[1], bars[0]
	if _, err := engine.Compute(bars); err == nil {
		t.Error("Expected error for unsorted series")
	}
}
