package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonho/sentbt/internal/dataload"
	"github.com/wonho/sentbt/internal/external/slickcharts"
	"github.com/wonho/sentbt/internal/external/stooq"
	"github.com/wonho/sentbt/internal/pipeline"
	"github.com/wonho/sentbt/internal/scheduler"
	"github.com/wonho/sentbt/internal/scheduler/jobs"
	"github.com/wonho/sentbt/internal/store"
	"github.com/wonho/sentbt/pkg/config"
	"github.com/wonho/sentbt/pkg/database"
	"github.com/wonho/sentbt/pkg/httputil"
	"github.com/wonho/sentbt/pkg/logger"
	"github.com/wonho/sentbt/pkg/redis"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the nightly backtest refresh scheduler",
	Long: `Starts the scheduler with the backtest refresh job. On each tick the
job re-fetches the universe and its price history, replays the configured
backtest, and stores the run.

Example:
  go run ./cmd/sentbt scheduler`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.Scheduler.Enabled {
		return fmt.Errorf("scheduler is disabled (set SCHEDULER_ENABLED=true)")
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	redisClient, err := redis.New(cfg, log)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	repo := store.NewRepository(db.Pool)
	if err := repo.EnsureSchema(cmd.Context()); err != nil {
		return err
	}

	httpClient := httputil.New(log, cfg.Fetch.RequestTimeout).WithRetry(3, 2*time.Second)
	stooqHTTP := httputil.New(log, cfg.Fetch.RequestTimeout).
		WithRetry(3, 2*time.Second).
		WithRateLimiter(redis.NewRateLimiter(redisClient, "sentbt"), redis.RateLimitConfig{
			Key:    "stooq",
			Limit:  60,
			Window: time.Minute,
		})
	refreshJob := jobs.NewRefreshJob(
		cfg,
		slickcharts.NewClient(cfg, httpClient, log),
		stooq.NewClient(cfg, stooqHTTP, redisClient, log),
		dataload.NewLoader(log),
		pipeline.NewOrchestrator(log),
		repo,
		log,
	)

	sched := scheduler.New(log)
	if err := sched.AddJob(refreshJob); err != nil {
		return fmt.Errorf("add refresh job: %w", err)
	}

	sched.Start()
	defer sched.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.WithField("signal", sig.String()).Info("Shutdown signal received")
	return nil
}
