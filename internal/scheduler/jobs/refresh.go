package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonho/sentbt/internal/contracts"
	"github.com/wonho/sentbt/internal/dataload"
	"github.com/wonho/sentbt/internal/external/slickcharts"
	"github.com/wonho/sentbt/internal/external/stooq"
	"github.com/wonho/sentbt/internal/pipeline"
	"github.com/wonho/sentbt/internal/runconfig"
	"github.com/wonho/sentbt/internal/store"
	"github.com/wonho/sentbt/pkg/config"
	"github.com/wonho/sentbt/pkg/logger"
)

// historyPadding widens the price window so early panel days can satisfy
// the minimum-history gate and late days still have forward bars.
const historyPadding = 30 * 24 * time.Hour

// RefreshJob re-runs the configured backtest against freshly fetched prices
// and stores the result. The sentiment panel stays file-based; only the
// universe and price history come from the network.
type RefreshJob struct {
	cfg          *config.Config
	universe     *slickcharts.Client
	prices       *stooq.Client
	loader       *dataload.Loader
	orchestrator *pipeline.Orchestrator
	repo         *store.Repository
	logger       *logger.Logger
}

// NewRefreshJob creates the nightly backtest refresh job
func NewRefreshJob(
	cfg *config.Config,
	universe *slickcharts.Client,
	prices *stooq.Client,
	loader *dataload.Loader,
	orchestrator *pipeline.Orchestrator,
	repo *store.Repository,
	log *logger.Logger,
) *RefreshJob {
	return &RefreshJob{
		cfg:          cfg,
		universe:     universe,
		prices:       prices,
		loader:       loader,
		orchestrator: orchestrator,
		repo:         repo,
		logger:       log,
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "backtest_refresh"
}

// Schedule returns the configured cron expression
func (j *RefreshJob) Schedule() string {
	return j.cfg.Scheduler.RefreshSpec
}

// Run fetches the universe and its price history, replays the backtest, and
// persists the run
func (j *RefreshJob) Run(ctx context.Context) error {
	runCfg, _, err := runconfig.Load(j.cfg.Backtest.RunConfigPath)
	if err != nil {
		return fmt.Errorf("load run config: %w", err)
	}

	observations, err := j.loader.LoadSentimentPanel(j.cfg.Backtest.PanelPath)
	if err != nil {
		return fmt.Errorf("load sentiment panel: %w", err)
	}
	if len(observations) == 0 {
		return fmt.Errorf("sentiment panel %s is empty", j.cfg.Backtest.PanelPath)
	}

	tickers, err := j.universe.FetchConstituents(ctx)
	if err != nil {
		return fmt.Errorf("fetch universe: %w", err)
	}

	from, to := panelRange(observations)
	prices, err := j.prices.FetchUniverse(ctx, tickers, from.Add(-historyPadding), to.Add(historyPadding))
	if err != nil {
		return fmt.Errorf("fetch prices: %w", err)
	}

	result, err := j.orchestrator.Run(ctx, runCfg, observations, prices)
	if err != nil {
		return fmt.Errorf("backtest run: %w", err)
	}

	runID, err := j.repo.SaveRun(ctx, result)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":      runID,
		"strategy_id": result.StrategyID,
		"held_days":   len(result.States),
	}).Info("Backtest refresh completed")

	return nil
}

// panelRange returns the earliest and latest observation dates
func panelRange(observations []contracts.SentimentObservation) (time.Time, time.Time) {
	from, to := observations[0].Date, observations[0].Date
	for _, obs := range observations[1:] {
		if obs.Date.Before(from) {
			from = obs.Date
		}
		if obs.Date.After(to) {
			to = obs.Date
		}
	}
	return from, to
}
