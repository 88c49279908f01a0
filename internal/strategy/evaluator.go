// Package strategy implements the bullish momentum gate chain that
// turns an indicator snapshot into a scored Signal or a rejection.
package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/swingscan/swingscan/internal/contracts"
	"github.com/swingscan/swingscan/internal/indicators"
	"github.com/swingscan/swingscan/pkg/logger"
)

// Fixed business policy, deliberately not configuration-driven.
const (
	// Profit target is a flat +7% above entry
	targetPct = 0.07
	// A stop within 20% of exactly 1×ATR below entry is labelled as
	// ATR-based rather than swing-low based
	atrLabelTolerance = 0.2
	// Breakout proximity bands (percent distance to pivot high)
	breakoutNearPct     = 2.0
	breakoutApproachPct = 5.0
)

// Evaluator applies the ordered gate chain to one symbol at a time.
// Stateless between calls; safe for concurrent use from the scan
// workers.
type Evaluator struct {
	config Config
	engine *indicators.Engine
	gates  []gate
	logger *logger.Logger
}

// evalState carries the partial result through the gate chain.
type evalState struct {
	symbol string
	snap   *indicators.Snapshot

	signalsHit []string
	breakdown  map[string]float64

	histRisingBars int

	entry, stop, target float64
	riskReward          float64
	atr                 float64
	stopBasis           string
	distToPivotPct      *float64
}

// gate is one step of the chain: it either contributes to the score (by
// mutating the state) or rejects with a reason. Order matters and is
// fixed at construction.
type gate struct {
	name string
	run  func(e *Evaluator, st *evalState) (rejectReason string)
}

// NewEvaluator creates a strategy evaluator.
func NewEvaluator(cfg Config, log *logger.Logger) *Evaluator {
	return &Evaluator{
		config: cfg,
		engine: indicators.NewEngine(log),
		logger: log,
		gates: []gate{
			{"required_indicators", (*Evaluator).gateRequired},
			{"liquidity", (*Evaluator).gateLiquidity},
			{"trend", (*Evaluator).gateTrend},
			{"ema_cross", (*Evaluator).gateEMACross},
			{"rsi_band", (*Evaluator).gateRSIBand},
			{"macd", (*Evaluator).gateMACD},
			{"volume", (*Evaluator).gateVolume},
			{"adx_floor", (*Evaluator).gateADXFloor},
			{"breakout_proximity", (*Evaluator).gateBreakout},
			{"score_threshold", (*Evaluator).gateThreshold},
			{"risk_reward", (*Evaluator).gateRiskReward},
		},
	}
}

// Evaluate analyzes one symbol and returns a Signal when all hard gates
// pass and the composite score clears the threshold, nil otherwise.
// Internal faults degrade to "no signal" for this symbol only.
func (e *Evaluator) Evaluate(symbol string, bars []contracts.Bar, meta *contracts.TickerMeta) (sig *contracts.Signal) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.WithFields(map[string]interface{}{
				"symbol": symbol,
				"panic":  fmt.Sprint(r),
			}).Error("Evaluation fault, treating as no signal")
			sig = nil
		}
	}()

	if len(bars) < e.config.MinBars {
		e.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"bars":   len(bars),
			"min":    e.config.MinBars,
		}).Debug("Insufficient data")
		return nil
	}

	snap, err := e.engine.Compute(bars)
	if err != nil {
		e.logger.WithField("symbol", symbol).WithError(err).Error("Indicator computation failed")
		return nil
	}

	st := &evalState{
		symbol:    symbol,
		snap:      snap,
		breakdown: make(map[string]float64),
	}

	for _, g := range e.gates {
		if reason := g.run(e, st); reason != "" {
			e.logger.WithFields(map[string]interface{}{
				"symbol": symbol,
				"gate":   g.name,
				"reason": reason,
			}).Debug("Rejected by strategy gate")
			return nil
		}
	}

	return e.buildSignal(st, meta)
}

// gateRequired rejects when any required indicator is still undefined.
func (e *Evaluator) gateRequired(st *evalState) string {
	s := st.snap
	if s.SMA50 == nil || s.EMA9 == nil || s.EMA21 == nil ||
		s.RSI == nil || s.MACD == nil || s.MACDSignal == nil {
		return "missing required indicators"
	}
	return ""
}

// gateLiquidity enforces the minimum price and dollar-volume floor.
func (e *Evaluator) gateLiquidity(st *evalState) string {
	s := st.snap
	if s.Price < e.config.MinPrice {
		return fmt.Sprintf("price $%.2f below minimum $%.2f", s.Price, e.config.MinPrice)
	}
	if s.DollarVolumeAvg20 != nil && *s.DollarVolumeAvg20 < e.config.MinDollarVolume20D {
		return fmt.Sprintf("avg dollar volume $%.0f below minimum $%.0f",
			*s.DollarVolumeAvg20, e.config.MinDollarVolume20D)
	}
	return ""
}

// gateTrend requires price above the 50-bar SMA. Hard gate.
func (e *Evaluator) gateTrend(st *evalState) string {
	if st.snap.Price <= *st.snap.SMA50 {
		return "price not above 50-SMA"
	}
	st.signalsHit = append(st.signalsHit, "Price > 50-SMA")
	return ""
}

// gateEMACross contributes the full ema weight on a bullish cross,
// nothing otherwise. Never rejects.
func (e *Evaluator) gateEMACross(st *evalState) string {
	if *st.snap.EMA9 > *st.snap.EMA21 {
		st.signalsHit = append(st.signalsHit, "9-EMA > 21-EMA")
		st.breakdown["ema"] = e.config.Weights.EMA
	} else {
		st.breakdown["ema"] = 0
	}
	return ""
}

// gateRSIBand requires RSI inside the configured band; centered values
// score highest.
func (e *Evaluator) gateRSIBand(st *evalState) string {
	rsi := *st.snap.RSI
	if rsi < e.config.RSIMin || rsi > e.config.RSIMax {
		return fmt.Sprintf("RSI %.1f not in range %.0f-%.0f", rsi, e.config.RSIMin, e.config.RSIMax)
	}

	center := (e.config.RSIMin + e.config.RSIMax) / 2
	width := e.config.RSIMax - e.config.RSIMin
	score := (1 - math.Abs(rsi-center)/width) * e.config.Weights.RSI
	st.breakdown["rsi"] = score
	st.signalsHit = append(st.signalsHit,
		fmt.Sprintf("RSI=%.0f%s", rsi, slopeArrow(st.snap.RSISlope)))
	return ""
}

// gateMACD requires a bullish MACD; a rising histogram earns the full
// weight, bullish-only earns 60%.
func (e *Evaluator) gateMACD(st *evalState) string {
	if *st.snap.MACD <= *st.snap.MACDSignal {
		return "MACD not bullish"
	}

	if st.snap.HistogramRising {
		st.histRisingBars = e.config.MACDHistogramRisingBars
		st.breakdown["macd"] = e.config.Weights.MACD
		st.signalsHit = append(st.signalsHit,
			fmt.Sprintf("MACD↑ hist+%dbars", st.histRisingBars))
	} else {
		st.breakdown["macd"] = e.config.Weights.MACD * 0.6
		st.signalsHit = append(st.signalsHit, "MACD bullish")
	}
	return ""
}

// gateVolume scores the volume ratio against the breakout multiplier.
// Never a hard gate.
func (e *Evaluator) gateVolume(st *evalState) string {
	var score float64
	if ratio := st.snap.VolumeRatio; ratio != nil {
		switch {
		case *ratio >= e.config.VolumeBreakoutMultiplier:
			score = e.config.Weights.Volume
			st.signalsHit = append(st.signalsHit, fmt.Sprintf("Vol=%.1f×20d", *ratio))
		case *ratio > 1.0:
			score = e.config.Weights.Volume * 0.7
			st.signalsHit = append(st.signalsHit, fmt.Sprintf("Vol=%.1f×20d", *ratio))
		default:
			score = e.config.Weights.Volume * 0.3
		}
	}
	st.breakdown["volume"] = score
	return ""
}

// gateADXFloor is active only when a floor is configured. An undefined
// ADX (window not full, or zero directional movement) skips the gate
// rather than rejecting.
func (e *Evaluator) gateADXFloor(st *evalState) string {
	if e.config.ADXMin <= 0 || st.snap.ADX == nil {
		return ""
	}
	if *st.snap.ADX < e.config.ADXMin {
		return fmt.Sprintf("ADX %.1f < %.0f", *st.snap.ADX, e.config.ADXMin)
	}
	st.signalsHit = append(st.signalsHit,
		fmt.Sprintf("ADX > %.0f (%.1f)", e.config.ADXMin, *st.snap.ADX))
	return ""
}

// gateBreakout scores proximity to the 20-bar pivot high. Never a hard
// gate.
func (e *Evaluator) gateBreakout(st *evalState) string {
	var score float64
	dist := ((st.snap.PivotHigh - st.snap.Price) / st.snap.Price) * 100
	st.distToPivotPct = &dist

	switch {
	case dist < breakoutNearPct:
		score = e.config.Weights.Breakout
		st.signalsHit = append(st.signalsHit, fmt.Sprintf("Near pivot high (%.1f%%)", dist))
	case dist < breakoutApproachPct:
		score = e.config.Weights.Breakout * 0.5
	}
	st.breakdown["breakout"] = score
	return ""
}

// gateThreshold rejects when the composite score is below the
// configured threshold.
func (e *Evaluator) gateThreshold(st *evalState) string {
	total := totalScore(st.breakdown)
	if total < e.config.ScoreThreshold {
		return fmt.Sprintf("score %.1f below threshold %.1f", total, e.config.ScoreThreshold)
	}
	return ""
}

// gateRiskReward constructs entry/stop/target and rejects when the
// resulting R/R is below the configured minimum.
func (e *Evaluator) gateRiskReward(st *evalState) string {
	s := st.snap

	atr := s.Price * 0.02 // fallback when the ATR window is not full
	if s.ATR != nil {
		atr = *s.ATR
	}
	st.atr = atr

	st.entry = s.Price
	st.stop = math.Max(s.RecentLow, s.Price-atr)
	st.target = s.Price * (1 + targetPct)

	risk := st.entry - st.stop
	reward := st.target - st.entry
	if risk > 0 {
		st.riskReward = reward / risk
	}

	slATRMult := 1.0
	if atr > 0 {
		slATRMult = (st.entry - st.stop) / atr
	}
	if math.Abs(slATRMult-1.0) < atrLabelTolerance {
		st.stopBasis = fmt.Sprintf("%.1f×ATR", slATRMult)
	} else {
		st.stopBasis = "swing-low"
	}

	if st.riskReward < e.config.MinRiskReward {
		return fmt.Sprintf("R/R %.2f below minimum %.2f", st.riskReward, e.config.MinRiskReward)
	}
	return ""
}

// buildSignal materializes the immutable Signal from the final state.
func (e *Evaluator) buildSignal(st *evalState, meta *contracts.TickerMeta) *contracts.Signal {
	s := st.snap
	pivot := s.PivotHigh

	sig := &contracts.Signal{
		Symbol:    st.symbol,
		Timestamp: time.Now().UTC(),
		Price:     s.Price,
		Score:     totalScore(st.breakdown),

		SignalsHit: st.signalsHit,

		RSI:                 s.RSI,
		RSISlope:            s.RSISlope,
		EMA9:                s.EMA9,
		EMA21:               s.EMA21,
		SMA50:               s.SMA50,
		MACD:                s.MACD,
		MACDSignal:          s.MACDSignal,
		MACDHistogram:       s.MACDHistogram,
		HistogramRisingBars: st.histRisingBars,
		VolumeAvg20:         s.VolumeAvg20,
		CurrentVolume:       s.Volume,
		VolumeRatio:         s.VolumeRatio,
		AvgDollarVolume20D:  s.DollarVolumeAvg20,
		ATR:                 st.atr,
		ADX:                 s.ADX,

		ScoreBreakdown: st.breakdown,

		SuggestedEntry:  st.entry,
		SuggestedStop:   st.stop,
		SuggestedTarget: st.target,
		StopBasis:       st.stopBasis,
		TargetBasis:     "+7%",
		RiskReward:      st.riskReward,

		PivotHigh:          &pivot,
		RecentLow:          s.RecentLow,
		DistanceToPivotPct: st.distToPivotPct,

		Meta: meta,
	}

	e.logger.WithFields(map[string]interface{}{
		"symbol": st.symbol,
		"score":  sig.Score,
		"hits":   len(sig.SignalsHit),
	}).Info("Signal generated")

	return sig
}

func totalScore(breakdown map[string]float64) float64 {
	var sum float64
	for _, v := range breakdown {
		sum += v
	}
	return sum
}

func slopeArrow(slope string) string {
	switch slope {
	case contracts.SlopeRising:
		return "↑"
	case contracts.SlopeFalling:
		return "↓"
	default:
		return "→"
	}
}
