package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sentbt",
	Short: "Sentiment signal backtesting pipeline",
	Long: `sentbt runs daily long/short backtests over a sentiment panel.

The pipeline builds a sentiment factor, aligns forward returns on the
trading-day index, ranks the cross-section, simulates an equal-weight
long/short portfolio, and reports Sharpe, max drawdown, and rank IC.

Examples:
  go run ./cmd/sentbt backtest --run-config run.yaml --panel panel.csv --prices prices.csv
  go run ./cmd/sentbt fetch --out prices.csv
  go run ./cmd/sentbt api
  go run ./cmd/sentbt scheduler`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}
