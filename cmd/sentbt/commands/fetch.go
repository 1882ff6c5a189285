package commands

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonho/sentbt/internal/contracts"
	"github.com/wonho/sentbt/internal/external/slickcharts"
	"github.com/wonho/sentbt/internal/external/stooq"
	"github.com/wonho/sentbt/pkg/config"
	"github.com/wonho/sentbt/pkg/httputil"
	"github.com/wonho/sentbt/pkg/logger"
	"github.com/wonho/sentbt/pkg/redis"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch universe price history to CSV",
	Long: `Scrapes the index constituent list, fetches daily adjusted close
history for each ticker, and writes a price CSV usable by the backtest
command.

Example:
  go run ./cmd/sentbt fetch --from 2023-01-01 --to 2024-01-01 --out prices.csv`,
	RunE: runFetch,
}

var (
	fetchFrom string
	fetchTo   string
	fetchOut  string
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchFrom, "from", "", "start date (YYYY-MM-DD, required)")
	fetchCmd.Flags().StringVar(&fetchTo, "to", "", "end date (YYYY-MM-DD, default: today)")
	fetchCmd.Flags().StringVar(&fetchOut, "out", "prices.csv", "output CSV path")

	fetchCmd.MarkFlagRequired("from")
}

func runFetch(cmd *cobra.Command, args []string) error {
	from, err := time.Parse("2006-01-02", fetchFrom)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	to := time.Now().UTC().Truncate(24 * time.Hour)
	if fetchTo != "" {
		to, err = time.Parse("2006-01-02", fetchTo)
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	redisClient, err := redis.New(cfg, log)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	httpClient := httputil.New(log, cfg.Fetch.RequestTimeout).WithRetry(3, 2*time.Second)
	universeClient := slickcharts.NewClient(cfg, httpClient, log)

	// Shared cross-process cap on top of the local token bucket.
	stooqHTTP := httputil.New(log, cfg.Fetch.RequestTimeout).
		WithRetry(3, 2*time.Second).
		WithRateLimiter(redis.NewRateLimiter(redisClient, "sentbt"), redis.RateLimitConfig{
			Key:    "stooq",
			Limit:  60,
			Window: time.Minute,
		})
	priceClient := stooq.NewClient(cfg, stooqHTTP, redisClient, log)

	ctx := cmd.Context()
	tickers, err := universeClient.FetchConstituents(ctx)
	if err != nil {
		return fmt.Errorf("fetch universe: %w", err)
	}

	prices, err := priceClient.FetchUniverse(ctx, tickers, from, to)
	if err != nil {
		return fmt.Errorf("fetch prices: %w", err)
	}

	if err := writePricesCSV(fetchOut, prices); err != nil {
		return fmt.Errorf("write %s: %w", fetchOut, err)
	}

	fmt.Printf("Wrote %d tickers to %s\n", len(prices), fetchOut)
	return nil
}

// writePricesCSV writes the series in (date, ticker) order
func writePricesCSV(path string, prices contracts.PriceSeries) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", "ticker", "adj_close"}); err != nil {
		return err
	}

	for _, ticker := range prices.Tickers() {
		for _, bar := range prices[ticker] {
			record := []string{
				bar.Date.Format("2006-01-02"),
				ticker,
				fmt.Sprintf("%g", bar.AdjClose),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}
