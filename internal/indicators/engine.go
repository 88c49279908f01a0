package indicators

import (
	"fmt"
	"time"

	"github.com/swingscan/swingscan/internal/contracts"
	"github.com/swingscan/swingscan/pkg/logger"
)

// Standard windows used by the scanner. The strategy is tuned to these;
// they are not runtime-configurable.
const (
	SMATrendPeriod    = 50
	EMAFastPeriod     = 9
	EMASlowPeriod     = 21
	RSIPeriod         = 14
	RSISlopeLookback  = 3
	MACDFastPeriod    = 12
	MACDSlowPeriod    = 26
	MACDSignalPeriod  = 9
	ATRPeriod         = 14
	ADXPeriod         = 14
	VolumePeriod      = 20
	PivotLookback     = 20
	HistogramRiseBars = 2
)

// Snapshot holds the latest indicator values for one symbol. A nil
// pointer means the indicator's window was not yet full; consumers must
// treat that as missing, never as zero.
type Snapshot struct {
	Price  float64
	Volume float64

	SMA50 *float64
	EMA9  *float64
	EMA21 *float64

	RSI      *float64
	RSISlope string

	MACD            *float64
	MACDSignal      *float64
	MACDHistogram   *float64
	HistogramRising bool

	VolumeAvg20       *float64
	VolumeRatio       *float64
	DollarVolumeAvg20 *float64

	ATR *float64
	ADX *float64

	PivotHigh float64
	RecentLow float64

	LastBarTime time.Time
}

// Engine computes indicator snapshots from bar series.
type Engine struct {
	logger *logger.Logger
}

// NewEngine creates a new indicator engine.
func NewEngine(log *logger.Logger) *Engine {
	return &Engine{logger: log}
}

// Compute produces one Snapshot from an ascending bar series using only
// trailing-window statistics.
func (e *Engine) Compute(bars []contracts.Bar) (*Snapshot, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bar data provided")
	}
	if err := contracts.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("invalid bar series: %w", err)
	}

	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	dollarVolumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = b.Volume
		dollarVolumes[i] = b.Close * b.Volume
	}

	last := len(bars) - 1

	sma50 := SMA(closes, SMATrendPeriod)
	ema9 := EMA(closes, EMAFastPeriod)
	ema21 := EMA(closes, EMASlowPeriod)
	rsi := RSI(closes, RSIPeriod)
	macdLine, macdSignal, macdHist := MACD(closes, MACDFastPeriod, MACDSlowPeriod, MACDSignalPeriod)
	volAvg := SMA(volumes, VolumePeriod)
	dollarVolAvg := SMA(dollarVolumes, VolumePeriod)
	atr := ATR(bars, ATRPeriod)
	adx := ADX(bars, ADXPeriod)

	snap := &Snapshot{
		Price:             closes[last],
		Volume:            volumes[last],
		SMA50:             sma50[last],
		EMA9:              ema9[last],
		EMA21:             ema21[last],
		RSI:               rsi[last],
		RSISlope:          RSISlopeClass(rsi, RSISlopeLookback),
		MACD:              macdLine[last],
		MACDSignal:        macdSignal[last],
		MACDHistogram:     macdHist[last],
		HistogramRising:   HistogramRising(macdHist, HistogramRiseBars),
		VolumeAvg20:       volAvg[last],
		DollarVolumeAvg20: dollarVolAvg[last],
		ATR:               atr[last],
		ADX:               adx[last],
		PivotHigh:         PivotHigh(bars, PivotLookback),
		RecentLow:         RecentLow(bars, PivotLookback),
		LastBarTime:       bars[last].Timestamp,
	}

	if snap.VolumeAvg20 != nil && *snap.VolumeAvg20 > 0 {
		ratio := snap.Volume / *snap.VolumeAvg20
		snap.VolumeRatio = &ratio
	}

	return snap, nil
}
