package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	presetPath string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "swingscan",
	Short: "Momentum swing-trade scanner for equities",
	Long: `swingscan scans a ticker universe for bullish momentum setups:
trend, EMA cross, RSI band, MACD, volume and breakout proximity are
scored into a composite, and surviving signals get entry, stop and
target suggestions with position sizing.

Examples:
  swingscan scan
  swingscan scan --universe us_liquid_tech --top 5 --csv out/scan.csv
  swingscan api
  swingscan worker --cron "30 16 * * 1-5"
  swingscan universe`,
}

// Execute runs the CLI. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&presetPath, "preset", "", "scan preset file (default from SWINGSCAN_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
