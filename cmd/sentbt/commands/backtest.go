package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonho/sentbt/internal/dataload"
	"github.com/wonho/sentbt/internal/pipeline"
	"github.com/wonho/sentbt/internal/runconfig"
	"github.com/wonho/sentbt/internal/store"
	"github.com/wonho/sentbt/pkg/config"
	"github.com/wonho/sentbt/pkg/database"
	"github.com/wonho/sentbt/pkg/logger"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a backtest from CSV inputs",
	Long: `Runs the full pipeline against a sentiment panel and price history.

Flags:
  --run-config  YAML run configuration (default: from environment)
  --panel       sentiment panel CSV (date,ticker,sentiment[,source_count])
  --prices      price history CSV (date,ticker,adj_close)
  --save        persist the run to the database

Example:
  go run ./cmd/sentbt backtest --run-config run.yaml --panel panel.csv --prices prices.csv
  go run ./cmd/sentbt backtest --save`,
	RunE: runBacktest,
}

var (
	backtestRunConfig string
	backtestPanel     string
	backtestPrices    string
	backtestSave      bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVar(&backtestRunConfig, "run-config", "", "run configuration YAML")
	backtestCmd.Flags().StringVar(&backtestPanel, "panel", "", "sentiment panel CSV")
	backtestCmd.Flags().StringVar(&backtestPrices, "prices", "", "price history CSV")
	backtestCmd.Flags().BoolVar(&backtestSave, "save", false, "persist the run to the database")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	if backtestRunConfig == "" {
		backtestRunConfig = cfg.Backtest.RunConfigPath
	}
	if backtestPanel == "" {
		backtestPanel = cfg.Backtest.PanelPath
	}
	if backtestPrices == "" {
		backtestPrices = cfg.Backtest.PricesPath
	}

	runCfg, _, err := runconfig.Load(backtestRunConfig)
	if err != nil {
		return fmt.Errorf("load run config: %w", err)
	}

	loader := dataload.NewLoader(log)
	observations, err := loader.LoadSentimentPanel(backtestPanel)
	if err != nil {
		return fmt.Errorf("load sentiment panel: %w", err)
	}
	prices, err := loader.LoadPrices(backtestPrices)
	if err != nil {
		return fmt.Errorf("load prices: %w", err)
	}

	ctx := cmd.Context()
	result, err := pipeline.NewOrchestrator(log).Run(ctx, runCfg, observations, prices)
	if err != nil {
		return fmt.Errorf("backtest run: %w", err)
	}

	printRunSummary(result)

	if backtestSave {
		if err := saveRun(ctx, cfg, result); err != nil {
			return err
		}
	}

	return nil
}

func saveRun(ctx context.Context, cfg *config.Config, result *pipeline.RunResult) error {
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	repo := store.NewRepository(db.Pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}

	runID, err := repo.SaveRun(ctx, result)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	fmt.Printf("  Saved as run #%d\n", runID)
	return nil
}

// printRunSummary prints the run result in the shared CLI format
func printRunSummary(result *pipeline.RunResult) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  Backtest: %s\n", result.StrategyID)
	fmt.Println("───────────────────────────────────────────────────────────")
	fmt.Printf("  Config Hash  : %s\n", result.ConfigHash[:12])
	fmt.Printf("  Held Days    : %d\n", len(result.States))
	if n := len(result.EquityCurve); n > 0 {
		fmt.Printf("  Cum Return   : %.4f\n", result.EquityCurve[n-1]-1)
	}
	fmt.Printf("  Sharpe       : %s\n", result.Metrics.Sharpe.String())
	fmt.Printf("  Max Drawdown : %s\n", result.Metrics.MaxDrawdown.String())
	fmt.Printf("  IC Mean      : %s (%d days)\n", result.Metrics.ICMean.String(), len(result.Metrics.ICSeries))
	fmt.Printf("  Duration     : %s\n", result.Duration)

	d := result.Diagnostics
	if d.HasWarnings() {
		fmt.Println("───────────────────────────────────────────────────────────")
		fmt.Println("  Warnings")
		if len(d.ExcludedTickers) > 0 {
			fmt.Printf("    excluded tickers (short history): %s\n", strings.Join(d.ExcludedTickers, ", "))
		}
		if len(d.LowCoverageDays) > 0 {
			fmt.Printf("    low-coverage days: %d\n", len(d.LowCoverageDays))
		}
		if len(d.ThinRankingDays) > 0 {
			fmt.Printf("    thin ranking days: %d\n", len(d.ThinRankingDays))
		}
		if len(d.ThinICDays) > 0 {
			fmt.Printf("    thin IC days: %d\n", len(d.ThinICDays))
		}
	}
	fmt.Println("═══════════════════════════════════════════════════════════")
}
