package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonho/sentbt/internal/api"
	"github.com/wonho/sentbt/internal/api/handlers"
	"github.com/wonho/sentbt/internal/store"
	"github.com/wonho/sentbt/pkg/config"
	"github.com/wonho/sentbt/pkg/database"
	"github.com/wonho/sentbt/pkg/logger"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the run results API server",
	Long: `Starts the REST API over stored backtest runs.

Endpoints:
  GET /health                  - Health check
  GET /api/runs/latest         - Most recent run summary
  GET /api/runs/{id}           - Run summary by id
  GET /api/runs/{id}/returns   - Daily portfolio states
  GET /api/runs/{id}/ic        - Per-day information coefficients

Example:
  go run ./cmd/sentbt api
  go run ./cmd/sentbt api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	repo := store.NewRepository(db.Pool)
	if err := repo.EnsureSchema(cmd.Context()); err != nil {
		return err
	}

	runsHandler := handlers.NewRunsHandler(repo, log)
	router := api.NewRouter(runsHandler, log)
	server := api.New(cfg, log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
