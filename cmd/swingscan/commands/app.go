package commands

import (
	"fmt"
	"os"

	"github.com/swingscan/swingscan/internal/actionable"
	"github.com/swingscan/swingscan/internal/export"
	"github.com/swingscan/swingscan/internal/notify"
	"github.com/swingscan/swingscan/internal/providers"
	"github.com/swingscan/swingscan/internal/ranking"
	"github.com/swingscan/swingscan/internal/readiness"
	"github.com/swingscan/swingscan/internal/scanconfig"
	"github.com/swingscan/swingscan/internal/scanner"
	"github.com/swingscan/swingscan/internal/strategy"
	"github.com/swingscan/swingscan/internal/universe"
	"github.com/swingscan/swingscan/pkg/cache"
	"github.com/swingscan/swingscan/pkg/config"
	"github.com/swingscan/swingscan/pkg/logger"
)

const historyPath = "data/scan_history.json"

// app holds everything a command needs after wiring.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	preset  *scanconfig.ScanConfig
	runner  *scanner.Runner
	symbols []string
}

// buildApp wires configuration, providers and the pipeline into a
// ready-to-run scanner.
func buildApp(universeOverride []string, topOverride int) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	preset, err := loadPreset(cfg, log)
	if err != nil {
		return nil, err
	}
	if topOverride > 0 {
		preset.TopN = topOverride
	}

	entries := preset.Universe
	if len(universeOverride) > 0 {
		entries = universeOverride
	}
	symbols, err := universe.Resolve(entries)
	if err != nil {
		return nil, fmt.Errorf("resolve universe: %w", err)
	}

	provs, err := buildProviders(cfg, preset, log)
	if err != nil {
		return nil, err
	}

	checker := readiness.NewChecker(historyPath, log)

	scan, err := scanner.New(
		provs,
		strategy.NewEvaluator(preset.StrategyConfig(), log),
		ranking.NewRanker(log),
		actionable.NewFilter(preset.ActionableConfig(), log),
		checker,
		scanner.Options{
			BarLimit:       preset.Bars,
			TopN:           preset.TopN,
			CheckReadiness: true,
			RecordHistory:  true,
			HistoryKey:     preset.HistoryKey(),
		},
		log,
	)
	if err != nil {
		return nil, err
	}

	runner := scanner.NewRunner(
		scan,
		symbols,
		export.New(log),
		scanner.ExportPaths{JSON: preset.Export.JSONPath, CSV: preset.Export.CSVPath},
		notify.NewTelegram(cfg.Telegram, log),
		log,
	)

	return &app{
		cfg:     cfg,
		log:     log,
		preset:  preset,
		runner:  runner,
		symbols: symbols,
	}, nil
}

func loadPreset(cfg *config.Config, log *logger.Logger) (*scanconfig.ScanConfig, error) {
	path := presetPath
	if path == "" {
		path = cfg.ScanConfigPath
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if presetPath != "" {
			return nil, fmt.Errorf("preset file %s not found", path)
		}
		log.WithField("path", path).Debug("No preset file, using built-in defaults")
		return scanconfig.Default(), nil
	}

	preset, err := scanconfig.Load(path)
	if err != nil {
		return nil, err
	}
	log.WithFields(map[string]interface{}{
		"path": path,
		"name": preset.Name,
	}).Info("Scan preset loaded")
	return preset, nil
}

// buildProviders instantiates every preset provider that has
// credentials, in preset order, each behind the shared bar cache.
func buildProviders(cfg *config.Config, preset *scanconfig.ScanConfig, log *logger.Logger) ([]providers.Provider, error) {
	barCache, err := buildCache(cfg, log)
	if err != nil {
		return nil, err
	}

	var provs []providers.Provider
	for _, name := range preset.Providers {
		var p providers.Provider
		switch name {
		case "alpaca":
			if cfg.Alpaca.APIKey != "" {
				p = providers.NewAlpaca(cfg.Alpaca, log)
			}
		case "finnhub":
			if cfg.Finnhub.APIKey != "" {
				p = providers.NewFinnhub(cfg.Finnhub, log)
			}
		case "twelvedata":
			if cfg.TwelveData.APIKey != "" {
				p = providers.NewTwelveData(cfg.TwelveData, log)
			}
		case "alphavantage":
			if cfg.AlphaVantage.APIKey != "" {
				p = providers.NewAlphaVantage(cfg.AlphaVantage, log)
			}
		}

		if p == nil {
			log.WithField("provider", name).Warn("Provider skipped, no API key configured")
			continue
		}
		provs = append(provs, providers.WithCache(p, barCache, cfg.CacheTTL, log))
	}

	if len(provs) == 0 {
		return nil, fmt.Errorf("no data provider configured; set at least one vendor API key")
	}
	return provs, nil
}

func buildCache(cfg *config.Config, log *logger.Logger) (cache.Cache, error) {
	if cfg.Redis.Enabled {
		r, err := cache.NewRedis(cfg, "swingscan")
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		log.Info("Using Redis bar cache")
		return r, nil
	}
	return cache.NewMemory(cfg.CacheMaxEntries), nil
}
