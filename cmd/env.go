package main

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/treeshoptech/treeshop-app-sub001/internal/calibrate"
	"github.com/treeshoptech/treeshop-app-sub001/internal/complexity"
	"github.com/treeshoptech/treeshop-app-sub001/internal/cost"
	"github.com/treeshoptech/treeshop-app-sub001/internal/estimate"
	"github.com/treeshoptech/treeshop-app-sub001/internal/resilience"
	"github.com/treeshoptech/treeshop-app-sub001/internal/scorer"
	"github.com/treeshoptech/treeshop-app-sub001/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.SQLitePath
		if dsn == "" {
			dsn = "treeshop.db"
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: int32(cfg.Store.MaxConns),
			MinConns: int32(cfg.Store.MinConns),
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

func retryConfig(op string) resilience.RetryConfig {
	rc := resilience.FromConfig(cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoffMs, cfg.Retry.MaxBackoffMs)
	rc.OnRetry = resilience.LogRetries(op)
	return rc
}

// newCalculator builds the labor calculator from the stock rate tables,
// the optional rates file, and the configured burden multiplier.
func newCalculator() (*cost.Calculator, error) {
	rates := cost.DefaultRates()
	if cfg.Pricing.RatesFile != "" {
		r, err := cost.LoadRatesFile(cfg.Pricing.RatesFile)
		if err != nil {
			return nil, err
		}
		rates = r
	}
	if cfg.Pricing.BurdenMultiplier > 0 {
		rates.BurdenMultiplier = cfg.Pricing.BurdenMultiplier
	}
	return cost.NewCalculator(rates), nil
}

// baseCatalog is the stock factor catalog merged with the configured catalog file.
func baseCatalog() (complexity.Catalog, error) {
	cat := complexity.DefaultCatalog()
	if cfg.Pricing.CatalogFile == "" {
		return cat, nil
	}
	extra, err := complexity.LoadFile(cfg.Pricing.CatalogFile)
	if err != nil {
		return nil, err
	}
	return cat.Merge(extra), nil
}

// loadCatalog prefers the factors stored in the database.
func loadCatalog(ctx context.Context, st store.Store) (complexity.Catalog, error) {
	factors, err := st.ListFactors(ctx)
	if err != nil {
		return nil, err
	}
	if len(factors) > 0 {
		return complexity.NewCatalog(factors), nil
	}
	zap.L().Debug("no stored factors, using base catalog")
	return baseCatalog()
}

func estimateDefaults() estimate.Defaults {
	return estimate.Defaults{
		TargetMarginPercent: cfg.Pricing.DefaultMarginPercent,
		BufferPercent:       cfg.Pricing.BufferPercent,
	}
}

func calibrationSettings() calibrate.Settings {
	return calibrate.Settings{
		MinJobsRequired:     cfg.Calibration.MinJobsRequired,
		Window:              time.Duration(cfg.Calibration.WindowDays) * 24 * time.Hour,
		ConfidenceScale:     cfg.Calibration.ConfidenceScale,
		MaxConcurrent:       cfg.Calibration.MaxConcurrent,
		DefaultTargetMargin: cfg.Pricing.DefaultMarginPercent,
	}
}

func newScorer(st store.Store) *scorer.Service {
	return scorer.NewService(st, retryConfig("complete job"))
}

func newCalibrator(st store.Store) *calibrate.Service {
	return calibrate.NewService(st, calibrationSettings(), retryConfig("calibrate"))
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode output")
}
