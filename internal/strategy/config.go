package strategy

// Weights holds the per-component contribution ceilings of the
// composite score. The sum is the maximum achievable score.
type Weights struct {
	EMA      float64 `yaml:"ema" json:"ema"`
	RSI      float64 `yaml:"rsi" json:"rsi"`
	MACD     float64 `yaml:"macd" json:"macd"`
	Volume   float64 `yaml:"volume" json:"volume"`
	Breakout float64 `yaml:"breakout" json:"breakout"`
}

// Config is the resolved strategy configuration. The loader is
// responsible for defaults and validation; the evaluator trusts these
// values.
type Config struct {
	RSIMin float64
	RSIMax float64

	// ADX floor; the gate is inactive at 0
	ADXMin float64

	Weights        Weights
	ScoreThreshold float64

	// Liquidity floor
	MinPrice           float64
	MinDollarVolume20D float64

	// Risk management
	MinRiskReward float64

	// Signal requirements
	MACDHistogramRisingBars  int
	VolumeBreakoutMultiplier float64

	// Minimum bar count before any evaluation happens
	MinBars int
}

// DefaultConfig returns the stock momentum preset.
func DefaultConfig() Config {
	return Config{
		RSIMin: 50,
		RSIMax: 65,
		ADXMin: 0,
		Weights: Weights{
			EMA:      25,
			RSI:      20,
			MACD:     25,
			Volume:   20,
			Breakout: 10,
		},
		ScoreThreshold:           60,
		MinPrice:                 5.0,
		MinDollarVolume20D:       10_000_000,
		MinRiskReward:            1.5,
		MACDHistogramRisingBars:  2,
		VolumeBreakoutMultiplier: 1.5,
		MinBars:                  60,
	}
}
