package runconfig

import (
	"fmt"

	"github.com/wonho/sentbt/internal/contracts"
)

// Validate checks every constraint the pipeline relies on. Failure is fatal:
// a run never starts from a half-valid configuration.
func Validate(cfg *Config) error {
	if cfg.Meta.StrategyID == "" {
		return contracts.ConfigurationError{Field: "meta.strategy_id", Message: "required"}
	}

	kind, err := contracts.ParseFactorKind(cfg.Factor.Name)
	if err != nil {
		return err
	}
	if kind == contracts.FactorSentShock && cfg.Factor.ShockWindow <= 0 {
		return contracts.ConfigurationError{
			Field:   "factor.shock_window",
			Message: fmt.Sprintf("must be > 0, got %d", cfg.Factor.ShockWindow),
		}
	}

	if cfg.Returns.HorizonDays <= 0 {
		return contracts.ConfigurationError{
			Field:   "returns.horizon_days",
			Message: fmt.Sprintf("must be > 0, got %d", cfg.Returns.HorizonDays),
		}
	}

	if err := validateFraction(cfg.Ranking.LongPercentile, "ranking.long_percentile"); err != nil {
		return err
	}
	if err := validateFraction(cfg.Ranking.ShortPercentile, "ranking.short_percentile"); err != nil {
		return err
	}
	if sum := cfg.Ranking.LongPercentile + cfg.Ranking.ShortPercentile; sum > 1 {
		return contracts.ConfigurationError{
			Field:   "ranking",
			Message: fmt.Sprintf("long_percentile + short_percentile must be <= 1, got %.4f", sum),
		}
	}
	if cfg.Ranking.MinEligible < 2 {
		return contracts.ConfigurationError{
			Field:   "ranking.min_eligible",
			Message: fmt.Sprintf("must be >= 2, got %d", cfg.Ranking.MinEligible),
		}
	}

	if cfg.Validation.MinCoverage < 0 || cfg.Validation.MinCoverage > 1 {
		return contracts.ConfigurationError{
			Field:   "validation.min_coverage",
			Message: fmt.Sprintf("must be in [0, 1], got %.4f", cfg.Validation.MinCoverage),
		}
	}
	if cfg.Validation.MinHistoryDays < 0 {
		return contracts.ConfigurationError{
			Field:   "validation.min_history_days",
			Message: fmt.Sprintf("must be >= 0, got %d", cfg.Validation.MinHistoryDays),
		}
	}

	if cfg.Metrics.AnnualizationFactor <= 0 {
		return contracts.ConfigurationError{
			Field:   "metrics.annualization_factor",
			Message: fmt.Sprintf("must be > 0, got %.2f", cfg.Metrics.AnnualizationFactor),
		}
	}
	if cfg.Metrics.MinICPairs < 2 {
		return contracts.ConfigurationError{
			Field:   "metrics.min_ic_pairs",
			Message: fmt.Sprintf("must be >= 2, got %d", cfg.Metrics.MinICPairs),
		}
	}

	return nil
}

// validateFraction checks a percentile parameter is strictly inside (0, 1)
func validateFraction(v float64, field string) error {
	if v <= 0 || v >= 1 {
		return contracts.ConfigurationError{
			Field:   field,
			Message: fmt.Sprintf("must be in (0, 1), got %.4f", v),
		}
	}
	return nil
}
