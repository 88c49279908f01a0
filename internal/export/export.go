// Package export writes scan results to files for spreadsheets and
// downstream tooling. JSON carries the full result; CSV flattens the
// ranked signals into one row per symbol.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/swingscan/swingscan/internal/contracts"
	"github.com/swingscan/swingscan/pkg/logger"
)

// Exporter writes scan results to disk.
type Exporter struct {
	logger *logger.Logger
}

// New creates an exporter.
func New(log *logger.Logger) *Exporter {
	return &Exporter{logger: log}
}

// WriteJSON writes the full scan result as indented JSON.
func (e *Exporter) WriteJSON(result *contracts.ScanResult, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode scan result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	e.logger.WithFields(map[string]interface{}{
		"path":    path,
		"signals": len(result.Signals),
	}).Info("Scan result exported")
	return nil
}

// WriteCSV writes the ranked signals as CSV.
func (e *Exporter) WriteCSV(result *contracts.ScanResult, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := writeCSV(f, result.Signals); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	e.logger.WithFields(map[string]interface{}{
		"path":    path,
		"signals": len(result.Signals),
	}).Info("Scan result exported")
	return nil
}

var csvHeader = []string{
	"symbol", "score", "price", "rsi", "rsi_slope", "volume_ratio",
	"entry", "stop", "target", "risk_reward", "stop_basis", "signals_hit",
}

func writeCSV(w io.Writer, signals []contracts.Signal) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, s := range signals {
		row := []string{
			s.Symbol,
			formatFloat(s.Score, 1),
			formatFloat(s.Price, 2),
			formatOptional(s.RSI, 1),
			s.RSISlope,
			formatOptional(s.VolumeRatio, 2),
			formatFloat(s.SuggestedEntry, 2),
			formatFloat(s.SuggestedStop, 2),
			formatFloat(s.SuggestedTarget, 2),
			formatFloat(s.RiskReward, 2),
			s.StopBasis,
			strings.Join(s.SignalsHit, "; "),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func formatOptional(v *float64, prec int) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v, prec)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir %s: %w", dir, err)
	}
	return nil
}
