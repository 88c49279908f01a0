package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/swingscan/swingscan/internal/contracts"
	"github.com/swingscan/swingscan/internal/ranking"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan and print the ranked signals",
	Long: `Runs the full pipeline once over the configured universe and
prints ranked signals with entry, stop and target suggestions.

Examples:
  swingscan scan
  swingscan scan --universe us_liquid_tech --universe uk_large_cap
  swingscan scan --universe AAPL --universe NVDA --top 5
  swingscan scan --json out/scan.json --csv out/scan.csv`,
	RunE: runScan,
}

var (
	scanUniverse []string
	scanTop      int
	scanJSONOut  string
	scanCSVOut   string
	scanTimeout  time.Duration
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringArrayVar(&scanUniverse, "universe", nil, "universe list name or ticker (repeatable)")
	scanCmd.Flags().IntVar(&scanTop, "top", 0, "keep only the top N ranked signals")
	scanCmd.Flags().StringVar(&scanJSONOut, "json", "", "write the full result to this JSON file")
	scanCmd.Flags().StringVar(&scanCSVOut, "csv", "", "write the ranked signals to this CSV file")
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 10*time.Minute, "abort the scan after this long")
}

func runScan(cmd *cobra.Command, args []string) error {
	a, err := buildApp(scanUniverse, scanTop)
	if err != nil {
		return err
	}
	if scanJSONOut != "" || scanCSVOut != "" {
		a.preset.Export.JSONPath = scanJSONOut
		a.preset.Export.CSVPath = scanCSVOut
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), scanTimeout)
	defer cancel()

	result, err := a.runner.Run(ctx)
	if err != nil {
		return err
	}

	printResult(result)
	return nil
}

func printResult(result *contracts.ScanResult) {
	fmt.Printf("Scan %s  universe=%d provider=%s\n",
		result.ScanTimestamp.Format("2006-01-02 15:04 MST"),
		result.ScannedCount, result.DataProvider)

	if result.ReadinessStatus != "" {
		fmt.Printf("Readiness: %s (%s)\n", result.ReadinessStatus, result.ReadinessMessage)
	}

	if len(result.Signals) == 0 {
		fmt.Println("\nNo setups found.")
		return
	}

	stats := ranking.SummaryStats(result.Signals)
	fmt.Printf("Signals: %d  avg score %.1f  avg R/R %.1f\n\n", stats.Count, stats.AvgScore, stats.AvgRR)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSYMBOL\tSCORE\tPRICE\tENTRY\tSTOP\tTARGET\tR/R\tSIGNALS")
	for i, s := range result.Signals {
		fmt.Fprintf(w, "%d\t%s\t%.0f\t%.2f\t%.2f\t%.2f\t%.2f\t%.1f\t%s\n",
			i+1, s.Symbol, s.Score, s.Price,
			s.SuggestedEntry, s.SuggestedStop, s.SuggestedTarget, s.RiskReward,
			joinMax(s.SignalsHit, 3))
	}
	w.Flush()

	if len(result.ActionableSignals) > 0 {
		fmt.Printf("\nActionable (%d):\n", len(result.ActionableSignals))
		for _, a := range result.ActionableSignals {
			fmt.Printf("  %s: %d shares  risk $%.0f  reward $%.0f  [%s]\n",
				a.Signal.Symbol, a.PositionSizeShares, a.RiskDollars, a.RewardDollars,
				joinMax(a.Notes, 3))
		}
	}
	for _, r := range result.RejectedSignals {
		fmt.Printf("  rejected %s: %s\n", r.Symbol, joinMax(r.RejectionReasons, 2))
	}
}

func joinMax(items []string, max int) string {
	out := ""
	for i, item := range items {
		if i == max {
			out += ", …"
			break
		}
		if i > 0 {
			out += ", "
		}
		out += item
	}
	return out
}
