// Package scanconfig loads the YAML scan preset: which universe to
// scan, the strategy tuning and the actionable filter settings.
// Environment configuration (credentials, ports) lives in pkg/config;
// this file is the part a user edits to change what the scanner looks
// for.
package scanconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/swingscan/swingscan/internal/actionable"
	"github.com/swingscan/swingscan/internal/strategy"
)

// Known provider names, in default fallback order.
var knownProviders = []string{"alpaca", "finnhub", "twelvedata", "alphavantage"}

// ScanConfig is the parsed preset.
type ScanConfig struct {
	Name      string   `yaml:"name"`
	Universe  []string `yaml:"universe"`
	Bars      int      `yaml:"bars"`
	TopN      int      `yaml:"top_n"`
	Providers []string `yaml:"providers"`

	Strategy   StrategySection   `yaml:"strategy"`
	Actionable ActionableSection `yaml:"actionable"`
	Export     ExportSection     `yaml:"export"`
}

// StrategySection mirrors strategy.Config in YAML form.
type StrategySection struct {
	RSIMin                   float64          `yaml:"rsi_min"`
	RSIMax                   float64          `yaml:"rsi_max"`
	ADXMin                   float64          `yaml:"adx_min"`
	ScoreThreshold           float64          `yaml:"score_threshold"`
	MinPrice                 float64          `yaml:"min_price"`
	MinDollarVolume20D       float64          `yaml:"min_dollar_volume_20d"`
	MinRiskReward            float64          `yaml:"min_risk_reward"`
	MACDHistogramRisingBars  int              `yaml:"macd_histogram_rising_bars"`
	VolumeBreakoutMultiplier float64          `yaml:"volume_breakout_multiplier"`
	MinBars                  int              `yaml:"min_bars"`
	Weights                  strategy.Weights `yaml:"weights"`
}

// ActionableSection mirrors actionable.Config in YAML form.
type ActionableSection struct {
	Enabled                    *bool   `yaml:"enabled"`
	AccountSize                float64 `yaml:"account_size"`
	RiskPercentPerTrade        float64 `yaml:"risk_percent_per_trade"`
	MinRR                      float64 `yaml:"min_rr"`
	RequireRSISlopeNonNegative *bool   `yaml:"require_rsi_slope_non_negative"`
	MinVolumeRatio             float64 `yaml:"min_volume_ratio"`
	AllowVolumeRisingDays      int     `yaml:"allow_volume_rising_days"`
	ATRMin                     float64 `yaml:"atr_min"`
	MinPrice                   float64 `yaml:"min_price"`
	MinAvgDollarVolume20D      float64 `yaml:"min_avg_dollar_volume_20d"`
}

// ExportSection names the output files; empty paths disable that format.
type ExportSection struct {
	JSONPath string `yaml:"json_path"`
	CSVPath  string `yaml:"csv_path"`
}

// Default returns the built-in momentum preset used when no file is
// given.
func Default() *ScanConfig {
	sc := &ScanConfig{
		Name:      "momentum",
		Universe:  []string{"us_liquid_tech"},
		Bars:      250,
		TopN:      10,
		Providers: append([]string(nil), knownProviders...),
	}
	sc.applyDefaults()
	return sc
}

// Load parses a preset file. Unknown keys are an error so a typo in a
// threshold name cannot silently fall back to a default.
func Load(path string) (*ScanConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scan config: %w", err)
	}

	var sc ScanConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scan config %s: %w", path, err)
	}

	sc.applyDefaults()
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scan config %s: %w", path, err)
	}
	return &sc, nil
}

// applyDefaults fills zero values from the stock preset.
func (sc *ScanConfig) applyDefaults() {
	strat := strategy.DefaultConfig()
	act := actionable.DefaultConfig()

	if sc.Bars <= 0 {
		sc.Bars = 250
	}
	if len(sc.Providers) == 0 {
		sc.Providers = append([]string(nil), knownProviders...)
	}

	s := &sc.Strategy
	if s.RSIMin == 0 && s.RSIMax == 0 {
		s.RSIMin, s.RSIMax = strat.RSIMin, strat.RSIMax
	}
	if s.ScoreThreshold == 0 {
		s.ScoreThreshold = strat.ScoreThreshold
	}
	if s.MinPrice == 0 {
		s.MinPrice = strat.MinPrice
	}
	if s.MinDollarVolume20D == 0 {
		s.MinDollarVolume20D = strat.MinDollarVolume20D
	}
	if s.MinRiskReward == 0 {
		s.MinRiskReward = strat.MinRiskReward
	}
	if s.MACDHistogramRisingBars == 0 {
		s.MACDHistogramRisingBars = strat.MACDHistogramRisingBars
	}
	if s.VolumeBreakoutMultiplier == 0 {
		s.VolumeBreakoutMultiplier = strat.VolumeBreakoutMultiplier
	}
	if s.MinBars == 0 {
		s.MinBars = strat.MinBars
	}
	if s.Weights == (strategy.Weights{}) {
		s.Weights = strat.Weights
	}

	a := &sc.Actionable
	if a.Enabled == nil {
		v := act.Enabled
		a.Enabled = &v
	}
	if a.AccountSize == 0 {
		a.AccountSize = act.AccountSize
	}
	if a.RiskPercentPerTrade == 0 {
		a.RiskPercentPerTrade = act.RiskPercentPerTrade
	}
	if a.MinRR == 0 {
		a.MinRR = act.MinRR
	}
	if a.RequireRSISlopeNonNegative == nil {
		v := act.RequireRSISlopeNonNegative
		a.RequireRSISlopeNonNegative = &v
	}
	if a.MinVolumeRatio == 0 {
		a.MinVolumeRatio = act.MinVolumeRatio
	}
	if a.AllowVolumeRisingDays == 0 {
		a.AllowVolumeRisingDays = act.AllowVolumeRisingDays
	}
	if a.MinPrice == 0 {
		a.MinPrice = act.MinPrice
	}
	if a.MinAvgDollarVolume20D == 0 {
		a.MinAvgDollarVolume20D = act.MinAvgDollarVolume20D
	}
}

// Validate rejects presets that cannot produce a sane scan.
func (sc *ScanConfig) Validate() error {
	if len(sc.Universe) == 0 {
		return fmt.Errorf("universe must not be empty")
	}

	s := sc.Strategy
	if s.RSIMin >= s.RSIMax {
		return fmt.Errorf("rsi_min (%v) must be below rsi_max (%v)", s.RSIMin, s.RSIMax)
	}
	if s.RSIMin < 0 || s.RSIMax > 100 {
		return fmt.Errorf("rsi band must stay within [0,100]")
	}

	w := s.Weights
	maxScore := w.EMA + w.RSI + w.MACD + w.Volume + w.Breakout
	if maxScore <= 0 {
		return fmt.Errorf("score weights must sum to a positive value")
	}
	if s.ScoreThreshold > maxScore {
		return fmt.Errorf("score_threshold %v exceeds maximum achievable score %v", s.ScoreThreshold, maxScore)
	}
	for name, v := range map[string]float64{
		"ema": w.EMA, "rsi": w.RSI, "macd": w.MACD,
		"volume": w.Volume, "breakout": w.Breakout,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s must not be negative", name)
		}
	}

	for _, p := range sc.Providers {
		if !isKnownProvider(p) {
			return fmt.Errorf("unknown provider %q (known: %s)",
				p, strings.Join(knownProviders, ", "))
		}
	}

	if sc.Actionable.RiskPercentPerTrade < 0 || sc.Actionable.RiskPercentPerTrade > 100 {
		return fmt.Errorf("risk_percent_per_trade must be within [0,100]")
	}

	return nil
}

// StrategyConfig converts the preset into the evaluator's config.
func (sc *ScanConfig) StrategyConfig() strategy.Config {
	s := sc.Strategy
	return strategy.Config{
		RSIMin:                   s.RSIMin,
		RSIMax:                   s.RSIMax,
		ADXMin:                   s.ADXMin,
		Weights:                  s.Weights,
		ScoreThreshold:           s.ScoreThreshold,
		MinPrice:                 s.MinPrice,
		MinDollarVolume20D:       s.MinDollarVolume20D,
		MinRiskReward:            s.MinRiskReward,
		MACDHistogramRisingBars:  s.MACDHistogramRisingBars,
		VolumeBreakoutMultiplier: s.VolumeBreakoutMultiplier,
		MinBars:                  s.MinBars,
	}
}

// ActionableConfig converts the preset into the filter's config.
func (sc *ScanConfig) ActionableConfig() actionable.Config {
	a := sc.Actionable
	return actionable.Config{
		Enabled:                    *a.Enabled,
		AccountSize:                a.AccountSize,
		RiskPercentPerTrade:        a.RiskPercentPerTrade,
		MinRR:                      a.MinRR,
		RequireRSISlopeNonNegative: *a.RequireRSISlopeNonNegative,
		MinVolumeRatio:             a.MinVolumeRatio,
		AllowVolumeRisingDays:      a.AllowVolumeRisingDays,
		ATRMin:                     a.ATRMin,
		MinPrice:                   a.MinPrice,
		MinAvgDollarVolume20D:      a.MinAvgDollarVolume20D,
	}
}

// Hash returns a short digest identifying this preset. Scans with
// different hashes get independent run-history entries.
func (sc *ScanConfig) Hash() string {
	data, err := json.Marshal(sc)
	if err != nil {
		return "unhashable"
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// HistoryKey identifies this scan in the readiness run history.
func (sc *ScanConfig) HistoryKey() string {
	name := sc.Name
	if name == "" {
		name = "scan"
	}
	return fmt.Sprintf("%s|%s", name, sc.Hash())
}

func isKnownProvider(name string) bool {
	for _, p := range knownProviders {
		if strings.EqualFold(name, p) {
			return true
		}
	}
	return false
}
