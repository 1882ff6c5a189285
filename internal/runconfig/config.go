package runconfig

import "github.com/wonho/sentbt/internal/contracts"

// Config is the full run configuration for one backtest. It is loaded once,
// validated, and then threaded through every stage as an immutable value; no
// stage reads ambient state.
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Factor     Factor     `yaml:"factor" json:"factor"`
	Returns    Returns    `yaml:"returns" json:"returns"`
	Ranking    Ranking    `yaml:"ranking" json:"ranking"`
	Validation Validation `yaml:"validation" json:"validation"`
	Metrics    Metrics    `yaml:"metrics" json:"metrics"`
}

// Meta identifies the strategy variant
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Factor selects the factor and its parameters
type Factor struct {
	Name        string `yaml:"name" json:"name"`                 // SENT_L1 | SENT_SHOCK
	ShockWindow int    `yaml:"shock_window" json:"shock_window"` // SENT_SHOCK lookback
}

// Returns controls forward-return alignment
type Returns struct {
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`
}

// Ranking controls side sizing
type Ranking struct {
	LongPercentile  float64 `yaml:"long_percentile" json:"long_percentile"`
	ShortPercentile float64 `yaml:"short_percentile" json:"short_percentile"`
	MinEligible     int     `yaml:"min_eligible" json:"min_eligible"`
}

// Validation holds the joiner's data-quality thresholds
type Validation struct {
	MinCoverage    float64 `yaml:"min_coverage" json:"min_coverage"`
	MinHistoryDays int     `yaml:"min_history_days" json:"min_history_days"`
}

// Metrics holds reporting parameters
type Metrics struct {
	AnnualizationFactor float64 `yaml:"annualization_factor" json:"annualization_factor"`
	MinICPairs          int     `yaml:"min_ic_pairs" json:"min_ic_pairs"`
}

// Default returns the baseline configuration
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "sent-ls-v1",
			Version:    "1.0.0",
		},
		Factor: Factor{
			Name:        "SENT_L1",
			ShockWindow: 3,
		},
		Returns: Returns{
			HorizonDays: 1,
		},
		Ranking: Ranking{
			LongPercentile:  0.3,
			ShortPercentile: 0.3,
			MinEligible:     2,
		},
		Validation: Validation{
			MinCoverage:    0.5,
			MinHistoryDays: 5,
		},
		Metrics: Metrics{
			AnnualizationFactor: 252,
			MinICPairs:          3,
		},
	}
}

// FactorSpec resolves the configured factor into its closed variant
func (c *Config) FactorSpec() (contracts.FactorSpec, error) {
	kind, err := contracts.ParseFactorKind(c.Factor.Name)
	if err != nil {
		return contracts.FactorSpec{}, err
	}
	return contracts.FactorSpec{Kind: kind, Window: c.Factor.ShockWindow}, nil
}
