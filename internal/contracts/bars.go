package contracts

import (
	"fmt"
	"time"
)

// Bar is one OHLCV sample for a fixed time interval. Immutable.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// TickerMeta is best-effort ticker metadata; vendors fill what they have.
type TickerMeta struct {
	Symbol    string   `json:"symbol"`
	Name      string   `json:"name,omitempty"`
	Exchange  string   `json:"exchange,omitempty"`
	Currency  string   `json:"currency,omitempty"`
	MarketCap *float64 `json:"market_cap,omitempty"`
	Sector    string   `json:"sector,omitempty"`
	Industry  string   `json:"industry,omitempty"`
}

// ValidateBars checks that a bar series is strictly ascending in
// timestamp with no duplicates. The indicator engine assumes this.
func ValidateBars(bars []Bar) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Timestamp.After(bars[i-1].Timestamp) {
			return fmt.Errorf("bars out of order at index %d: %s !> %s",
				i, bars[i].Timestamp.Format(time.RFC3339), bars[i-1].Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}
