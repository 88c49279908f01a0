package actionable

// Config controls the actionable filter and position sizing.
type Config struct {
	// Disabled passes every ranked signal through with sizing only
	Enabled bool

	// Position sizing
	AccountSize         float64
	RiskPercentPerTrade float64

	// Safety gates
	MinRR                      float64
	RequireRSISlopeNonNegative bool
	MinVolumeRatio             float64
	// A volume ratio below the floor is forgiven when raw volume has
	// risen for this many consecutive bars; 0 disables the exemption
	AllowVolumeRisingDays int
	ATRMin                float64
	MinPrice              float64
	MinAvgDollarVolume20D float64
}

// DefaultConfig returns the conservative sizing preset.
func DefaultConfig() Config {
	return Config{
		Enabled:                    true,
		AccountSize:                10_000,
		RiskPercentPerTrade:        1.0,
		MinRR:                      1.5,
		RequireRSISlopeNonNegative: true,
		MinVolumeRatio:             0.8,
		AllowVolumeRisingDays:      3,
		ATRMin:                     0,
		MinPrice:                   5.0,
		MinAvgDollarVolume20D:      10_000_000,
	}
}
