// Package actionable applies final safety gates to ranked signals and
// sizes the surviving ones against the configured account. Unlike the
// strategy gates, every check runs so a rejection carries the complete
// list of reasons.
package actionable

import (
	"fmt"
	"math"

	"github.com/swingscan/swingscan/internal/contracts"
	"github.com/swingscan/swingscan/pkg/logger"
)

// Filter splits ranked signals into actionable and rejected.
type Filter struct {
	config Config
	logger *logger.Logger
}

// NewFilter creates a new actionable filter.
func NewFilter(cfg Config, log *logger.Logger) *Filter {
	return &Filter{config: cfg, logger: log}
}

// Apply runs the safety gates over each signal. bars carries the series
// the signals were computed from, keyed by symbol; it is only consulted
// for the volume-rising exemption and may omit symbols.
func (f *Filter) Apply(signals []contracts.Signal, bars map[string][]contracts.Bar) ([]contracts.ActionableSignal, []contracts.RejectedSignal) {
	actionable := make([]contracts.ActionableSignal, 0, len(signals))
	rejected := make([]contracts.RejectedSignal, 0)

	for _, sig := range signals {
		if !f.config.Enabled {
			act := f.size(sig)
			act.Notes = []string{"Actionable filter disabled"}
			actionable = append(actionable, act)
			continue
		}

		reasons := f.check(sig, bars[sig.Symbol])
		if len(reasons) > 0 {
			f.logger.WithFields(map[string]interface{}{
				"symbol":  sig.Symbol,
				"reasons": reasons,
			}).Debug("Signal not actionable")
			rejected = append(rejected, contracts.RejectedSignal{
				Symbol:           sig.Symbol,
				RejectionReasons: reasons,
			})
			continue
		}

		// Sizing runs only after the safety gates found nothing
		act := f.size(sig)
		if act.PositionSizeShares < 1 {
			f.logger.WithField("symbol", sig.Symbol).Debug("Position rounds to zero shares")
			rejected = append(rejected, contracts.RejectedSignal{
				Symbol:           sig.Symbol,
				RejectionReasons: []string{"Position size < 1 share"},
			})
			continue
		}
		act.Notes = f.notes(sig)
		actionable = append(actionable, act)
	}

	f.logger.WithFields(map[string]interface{}{
		"in":         len(signals),
		"actionable": len(actionable),
		"rejected":   len(rejected),
	}).Info("Actionable filter applied")

	return actionable, rejected
}

// check runs every gate and returns all accumulated reasons.
func (f *Filter) check(sig contracts.Signal, bars []contracts.Bar) []string {
	var reasons []string

	if sig.Price < f.config.MinPrice {
		reasons = append(reasons,
			fmt.Sprintf("Price $%.2f below minimum $%.2f", sig.Price, f.config.MinPrice))
	}

	if f.config.MinAvgDollarVolume20D > 0 && sig.AvgDollarVolume20D != nil &&
		*sig.AvgDollarVolume20D < f.config.MinAvgDollarVolume20D {
		reasons = append(reasons,
			fmt.Sprintf("Avg dollar volume $%.0f below minimum $%.0f",
				*sig.AvgDollarVolume20D, f.config.MinAvgDollarVolume20D))
	}

	if sig.RiskReward < f.config.MinRR {
		reasons = append(reasons,
			fmt.Sprintf("R/R %.2f below minimum %.2f", sig.RiskReward, f.config.MinRR))
	}

	if f.config.RequireRSISlopeNonNegative && sig.RSISlope == contracts.SlopeFalling {
		reasons = append(reasons, "RSI slope falling")
	}

	if f.config.MinVolumeRatio > 0 {
		volumeOK := sig.VolumeRatio != nil && *sig.VolumeRatio >= f.config.MinVolumeRatio
		if !volumeOK {
			volumeOK = volumeRising(bars, f.config.AllowVolumeRisingDays)
		}
		if !volumeOK {
			ratio := "?"
			if sig.VolumeRatio != nil {
				ratio = fmt.Sprintf("%.2f", *sig.VolumeRatio)
			}
			reasons = append(reasons,
				fmt.Sprintf("Volume ratio %s below minimum %.2f", ratio, f.config.MinVolumeRatio))
		}
	}

	if f.config.ATRMin > 0 && sig.ATR < f.config.ATRMin {
		reasons = append(reasons,
			fmt.Sprintf("ATR %.2f below minimum %.2f", sig.ATR, f.config.ATRMin))
	}

	return reasons
}

// size computes the position for a signal that passed (or skipped) the
// gates. Shares may be 0 when no valid position exists.
func (f *Filter) size(sig contracts.Signal) contracts.ActionableSignal {
	shares := f.shares(sig)
	riskPerShare := sig.SuggestedEntry - sig.SuggestedStop
	rewardPerShare := sig.SuggestedTarget - sig.SuggestedEntry

	return contracts.ActionableSignal{
		Signal:             sig,
		PositionSizeShares: shares,
		RiskDollars:        float64(shares) * riskPerShare,
		RewardDollars:      float64(shares) * rewardPerShare,
	}
}

// shares returns the whole-share position size. 0 when the risk per
// share is non-positive or the risk budget rounds below one share.
func (f *Filter) shares(sig contracts.Signal) int {
	riskPerShare := sig.SuggestedEntry - sig.SuggestedStop
	if riskPerShare <= 0 {
		return 0
	}

	riskBudget := f.config.AccountSize * f.config.RiskPercentPerTrade / 100
	return int(math.Floor(riskBudget / riskPerShare))
}

// notes builds the short human-readable summary shown next to an
// actionable signal.
func (f *Filter) notes(sig contracts.Signal) []string {
	var notes []string

	if sig.Score >= 80 {
		notes = append(notes, "High score")
	}

	switch sig.RSISlope {
	case contracts.SlopeRising:
		notes = append(notes, "RSI rising", "RSI slope OK")
	case contracts.SlopeFlat:
		notes = append(notes, "RSI flat", "RSI slope OK")
	}

	if sig.VolumeRatio != nil && *sig.VolumeRatio >= 1.5 {
		notes = append(notes, "Volume breakout")
	}

	if sig.HistogramRisingBars > 0 {
		notes = append(notes, fmt.Sprintf("MACD hist +%dbars", sig.HistogramRisingBars))
	}

	if sig.RiskReward >= 3 {
		notes = append(notes, "High R/R")
	}

	if sig.DistanceToPivotPct != nil {
		switch d := *sig.DistanceToPivotPct; {
		case d < 1:
			notes = append(notes, "At pivot high")
		case d < 2:
			notes = append(notes, "Near pivot high")
		case d < 5:
			notes = append(notes, "Approaching pivot high")
		}
	}

	if len(notes) == 0 {
		notes = append(notes, "Clean trend")
	}
	return notes
}

// volumeRising reports whether raw volume rose strictly over the last
// `days` bars. Needs days+1 samples.
func volumeRising(bars []contracts.Bar, days int) bool {
	if days <= 0 || len(bars) < days+1 {
		return false
	}
	recent := bars[len(bars)-days-1:]
	for i := 1; i < len(recent); i++ {
		if recent[i].Volume <= recent[i-1].Volume {
			return false
		}
	}
	return true
}
