package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/wonho/sentbt/internal/backtest"
	"github.com/wonho/sentbt/internal/contracts"
	"github.com/wonho/sentbt/internal/factors"
	"github.com/wonho/sentbt/internal/metrics"
	"github.com/wonho/sentbt/internal/panel"
	"github.com/wonho/sentbt/internal/ranking"
	"github.com/wonho/sentbt/internal/returns"
	"github.com/wonho/sentbt/internal/runconfig"
	"github.com/wonho/sentbt/pkg/logger"
)

// Orchestrator coordinates the full backtest pipeline:
// factors → returns → join → ranking → simulation → metrics.
// Stage coordination lives here and nowhere else.
type Orchestrator struct {
	factorBuilder *factors.Builder
	aligner       *returns.Aligner
	joiner        *panel.Joiner
	ranker        *ranking.Ranker
	simulator     *backtest.Simulator
	metricsEngine *metrics.Engine

	logger *logger.Logger
}

// RunResult holds the output of a complete pipeline run
type RunResult struct {
	StrategyID      string
	ConfigHash      string
	Factors         []contracts.FactorRecord
	Panel           *panel.Panel
	Ranked          []contracts.RankedRow
	States          []contracts.DailyPortfolioState
	ReturnSeries    []float64
	EquityCurve     []float64
	Metrics         contracts.MetricsRecord
	Diagnostics     contracts.Diagnostics
	CompletedStages []string
	Duration        time.Duration
}

// NewOrchestrator creates a new pipeline orchestrator
func NewOrchestrator(log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		factorBuilder: factors.NewBuilder(log),
		aligner:       returns.NewAligner(log),
		joiner:        panel.NewJoiner(log),
		ranker:        ranking.NewRanker(log),
		simulator:     backtest.NewSimulator(log),
		metricsEngine: metrics.NewEngine(log),
		logger:        log,
	}
}

// Run executes every stage in order on a validated configuration. Inputs are
// never mutated; identical inputs and configuration produce byte-identical
// results. The first fatal stage error aborts the run; data-quality findings
// accumulate in Diagnostics instead.
func (o *Orchestrator) Run(
	ctx context.Context,
	cfg *runconfig.Config,
	observations []contracts.SentimentObservation,
	prices contracts.PriceSeries,
) (*RunResult, error) {
	startTime := time.Now()

	if err := runconfig.Validate(cfg); err != nil {
		return nil, err
	}
	configHash, err := runconfig.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("config hash: %w", err)
	}

	result := &RunResult{
		StrategyID:      cfg.Meta.StrategyID,
		ConfigHash:      configHash,
		CompletedStages: make([]string, 0, 6),
	}

	o.logger.WithFields(map[string]interface{}{
		"strategy_id":  cfg.Meta.StrategyID,
		"config_hash":  configHash[:12],
		"factor":       cfg.Factor.Name,
		"horizon_days": cfg.Returns.HorizonDays,
		"observations": len(observations),
		"tickers":      len(prices),
	}).Info("Starting backtest run")

	// Factor construction
	spec, err := cfg.FactorSpec()
	if err != nil {
		return result, err
	}
	factorRecords, err := o.factorBuilder.Build(observations, spec)
	if err != nil {
		return result, fmt.Errorf("factors failed: %w", err)
	}
	result.Factors = factorRecords
	result.CompletedStages = append(result.CompletedStages, "factors")

	if err := ctx.Err(); err != nil {
		return result, err
	}

	// Forward-return alignment
	fwdReturns, err := o.aligner.Align(prices, cfg.Returns.HorizonDays)
	if err != nil {
		return result, fmt.Errorf("returns failed: %w", err)
	}
	result.CompletedStages = append(result.CompletedStages, "returns")

	// Join and validation
	joined, err := o.joiner.Join(factorRecords, fwdReturns, prices, panel.Params{
		MinCoverage: cfg.Validation.MinCoverage,
		MinHistory:  cfg.Validation.MinHistoryDays,
	})
	if err != nil {
		return result, fmt.Errorf("join failed: %w", err)
	}
	result.Panel = joined
	result.Diagnostics = joined.Diagnostics
	result.CompletedStages = append(result.CompletedStages, "join")

	if err := ctx.Err(); err != nil {
		return result, err
	}

	// Cross-sectional ranking
	rankResult, err := o.ranker.Rank(joined, ranking.Params{
		LongPercentile:  cfg.Ranking.LongPercentile,
		ShortPercentile: cfg.Ranking.ShortPercentile,
		MinEligible:     cfg.Ranking.MinEligible,
	})
	if err != nil {
		return result, fmt.Errorf("ranking failed: %w", err)
	}
	result.Ranked = rankResult.Rows
	result.Diagnostics.ThinRankingDays = rankResult.ThinDays
	result.CompletedStages = append(result.CompletedStages, "ranking")

	// Portfolio simulation
	result.States = o.simulator.Run(rankResult.Rows)
	result.ReturnSeries = contracts.ReturnSeries(result.States)
	result.EquityCurve = metrics.EquityCurve(result.ReturnSeries)
	result.CompletedStages = append(result.CompletedStages, "simulation")

	// Metrics
	record, thinICDays := o.metricsEngine.Compute(result.ReturnSeries, joined, metrics.Params{
		AnnualizationFactor: cfg.Metrics.AnnualizationFactor,
		MinICPairs:          cfg.Metrics.MinICPairs,
	})
	result.Metrics = record
	result.Diagnostics.ThinICDays = thinICDays
	result.CompletedStages = append(result.CompletedStages, "metrics")

	result.Duration = time.Since(startTime)

	o.logger.WithFields(map[string]interface{}{
		"strategy_id": cfg.Meta.StrategyID,
		"held_days":   len(result.States),
		"sharpe":      record.Sharpe.String(),
		"ic_mean":     record.ICMean.String(),
		"warnings":    result.Diagnostics.HasWarnings(),
		"duration_ms": result.Duration.Milliseconds(),
	}).Info("Backtest run completed")

	return result, nil
}
