// Package indicators converts an ascending OHLCV bar series into a
// snapshot of technical indicator values. All statistics are
// trailing-window only; a value is nil until its full window has been
// seen, never zero or NaN.
package indicators

import (
	"math"

	"github.com/swingscan/swingscan/internal/contracts"
)

// SMA returns the simple moving average series. Entry i is nil until
// `period` samples are available.
func SMA(values []float64, period int) []*float64 {
	out := make([]*float64, len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			mean := sum / float64(period)
			out[i] = &mean
		}
	}
	return out
}

// EMA returns the exponential moving average series with smoothing
// factor 2/(period+1), seeded with the SMA of the first `period`
// samples. Entry i is nil until `period` samples are available.
func EMA(values []float64, period int) []*float64 {
	out := make([]*float64, len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	var seed float64
	for i := 0; i < period; i++ {
		seed += values[i]
	}
	ema := seed / float64(period)
	v := ema
	out[period-1] = &v

	k := 2.0 / (float64(period) + 1.0)
	for i := period; i < len(values); i++ {
		ema = values[i]*k + ema*(1-k)
		v := ema
		out[i] = &v
	}
	return out
}

// emaOfSeries computes an EMA over a series that may have a nil prefix
// (e.g. the MACD line). The seed is the SMA of the first `period`
// defined samples.
func emaOfSeries(values []*float64, period int) []*float64 {
	out := make([]*float64, len(values))
	if period <= 0 {
		return out
	}

	start := -1
	for i, v := range values {
		if v != nil {
			start = i
			break
		}
	}
	if start < 0 || len(values)-start < period {
		return out
	}

	var seed float64
	for i := start; i < start+period; i++ {
		seed += *values[i]
	}
	ema := seed / float64(period)
	v := ema
	out[start+period-1] = &v

	k := 2.0 / (float64(period) + 1.0)
	for i := start + period; i < len(values); i++ {
		ema = *values[i]*k + ema*(1-k)
		v := ema
		out[i] = &v
	}
	return out
}

// RSI returns the Relative Strength Index series: rolling means of
// gains and losses over `period` price changes, RSI = 100 - 100/(1+RS).
// Entry i is nil until `period` changes are available.
func RSI(closes []float64, period int) []*float64 {
	out := make([]*float64, len(closes))
	if period <= 0 || len(closes) < period+1 {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	var gainSum, lossSum float64
	for i := 1; i < len(closes); i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i > period {
			gainSum -= gains[i-period]
			lossSum -= losses[i-period]
		}
		if i < period {
			continue
		}

		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)

		if avgLoss == 0 {
			if avgGain == 0 {
				// Flat window: RS is undefined
				continue
			}
			v := 100.0
			out[i] = &v
			continue
		}

		rs := avgGain / avgLoss
		v := 100 - 100/(1+rs)
		out[i] = &v
	}
	return out
}

// MACD returns the MACD line, signal line and histogram series for the
// given fast/slow/signal periods.
func MACD(closes []float64, fast, slow, signal int) (line, sig, hist []*float64) {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)

	line = make([]*float64, len(closes))
	for i := range closes {
		if emaFast[i] != nil && emaSlow[i] != nil {
			v := *emaFast[i] - *emaSlow[i]
			line[i] = &v
		}
	}

	sig = emaOfSeries(line, signal)

	hist = make([]*float64, len(closes))
	for i := range closes {
		if line[i] != nil && sig[i] != nil {
			v := *line[i] - *sig[i]
			hist[i] = &v
		}
	}
	return line, sig, hist
}

// TrueRange returns the true range series: max of high-low,
// |high-prevClose|, |low-prevClose|. The first bar has no previous
// close, so its TR is high-low.
func TrueRange(bars []contracts.Bar) []float64 {
	tr := make([]float64, len(bars))
	for i, b := range bars {
		hl := b.High - b.Low
		if i == 0 {
			tr[i] = hl
			continue
		}
		prevClose := bars[i-1].Close
		tr[i] = math.Max(hl, math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
	}
	return tr
}

// ATR returns the average true range series: rolling mean of TR over
// `period` bars.
func ATR(bars []contracts.Bar, period int) []*float64 {
	return SMA(TrueRange(bars), period)
}

// ADX returns the average directional index series. A nil entry means
// the window is not yet full or the directional sum was zero (DX would
// divide by zero).
func ADX(bars []contracts.Bar, period int) []*float64 {
	n := len(bars)
	out := make([]*float64, n)
	if period <= 0 || n < 2 {
		return out
	}

	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		up := bars[i].High - bars[i-1].High
		down := bars[i-1].Low - bars[i].Low
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	// Rolling DM means are undefined until `period` directional moves
	// exist, i.e. from bar index `period` onward.
	plusMean := shiftedSMA(plusDM, period)
	minusMean := shiftedSMA(minusDM, period)
	atr := ATR(bars, period)

	dx := make([]*float64, n)
	for i := 0; i < n; i++ {
		if plusMean[i] == nil || minusMean[i] == nil || atr[i] == nil || *atr[i] == 0 {
			continue
		}
		plusDI := 100 * (*plusMean[i] / *atr[i])
		minusDI := 100 * (*minusMean[i] / *atr[i])
		sum := plusDI + minusDI
		if sum == 0 {
			continue
		}
		v := 100 * math.Abs(plusDI-minusDI) / sum
		dx[i] = &v
	}

	return rollingMean(dx, period)
}

// shiftedSMA is an SMA over a series whose index-0 entry is a
// placeholder (diff-style series start at index 1).
func shiftedSMA(values []float64, period int) []*float64 {
	out := make([]*float64, len(values))
	if len(values) < period+1 {
		return out
	}

	var sum float64
	for i := 1; i < len(values); i++ {
		sum += values[i]
		if i > period {
			sum -= values[i-period]
		}
		if i >= period {
			mean := sum / float64(period)
			out[i] = &mean
		}
	}
	return out
}

// rollingMean averages a nullable series over `period`; the result is
// nil unless every value in the window is defined.
func rollingMean(values []*float64, period int) []*float64 {
	out := make([]*float64, len(values))
	if period <= 0 {
		return out
	}

	for i := period - 1; i < len(values); i++ {
		var sum float64
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if values[j] == nil {
				ok = false
				break
			}
			sum += *values[j]
		}
		if ok {
			mean := sum / float64(period)
			out[i] = &mean
		}
	}
	return out
}

// PivotHigh returns the highest high over the trailing `lookback` bars,
// or over the whole series when shorter.
func PivotHigh(bars []contracts.Bar, lookback int) float64 {
	start := 0
	if len(bars) > lookback {
		start = len(bars) - lookback
	}
	high := bars[start].High
	for _, b := range bars[start+1:] {
		if b.High > high {
			high = b.High
		}
	}
	return high
}

// RecentLow returns the lowest low over the trailing `lookback` bars,
// or over the whole series when shorter.
func RecentLow(bars []contracts.Bar, lookback int) float64 {
	start := 0
	if len(bars) > lookback {
		start = len(bars) - lookback
	}
	low := bars[start].Low
	for _, b := range bars[start+1:] {
		if b.Low < low {
			low = b.Low
		}
	}
	return low
}

// HistogramRising reports whether the histogram has strictly increased
// for each of the last `bars` steps (i.e. across the last bars+1
// samples, all defined).
func HistogramRising(hist []*float64, bars int) bool {
	if bars <= 0 || len(hist) < bars+1 {
		return false
	}

	recent := hist[len(hist)-bars-1:]
	for i := 0; i < len(recent)-1; i++ {
		if recent[i] == nil || recent[i+1] == nil {
			return false
		}
		if *recent[i] >= *recent[i+1] {
			return false
		}
	}
	return true
}

// RSISlopeClass classifies the RSI direction over the last `lookback`
// samples: difference > +2 is rising, < -2 is falling, otherwise flat.
func RSISlopeClass(rsi []*float64, lookback int) string {
	if lookback <= 0 || len(rsi) < lookback {
		return contracts.SlopeFlat
	}

	recent := rsi[len(rsi)-lookback:]
	first, last := recent[0], recent[len(recent)-1]
	if first == nil || last == nil {
		return contracts.SlopeFlat
	}

	slope := *last - *first
	switch {
	case slope > 2:
		return contracts.SlopeRising
	case slope < -2:
		return contracts.SlopeFalling
	default:
		return contracts.SlopeFlat
	}
}
