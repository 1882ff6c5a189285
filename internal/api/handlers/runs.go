package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonho/sentbt/internal/contracts"
	"github.com/wonho/sentbt/internal/store"
	"github.com/wonho/sentbt/pkg/logger"
)

// RunStore is the subset of the run repository the API reads from
type RunStore interface {
	LatestRun(ctx context.Context) (*store.RunSummary, error)
	GetRun(ctx context.Context, id int64) (*store.RunSummary, error)
	DailyReturns(ctx context.Context, runID int64) ([]contracts.DailyPortfolioState, error)
	ICSeries(ctx context.Context, runID int64) ([]contracts.ICPoint, error)
}

// RunsHandler serves stored backtest runs
type RunsHandler struct {
	store  RunStore
	logger *logger.Logger
}

// NewRunsHandler creates a new runs handler
func NewRunsHandler(runStore RunStore, log *logger.Logger) *RunsHandler {
	return &RunsHandler{
		store:  runStore,
		logger: log,
	}
}

// GetLatest returns the most recent run summary
func (h *RunsHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	summary, err := h.store.LatestRun(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetRun returns one run summary by id
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, ok := h.runID(w, r)
	if !ok {
		return
	}

	summary, err := h.store.GetRun(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetReturns returns a run's daily portfolio states
func (h *RunsHandler) GetReturns(w http.ResponseWriter, r *http.Request) {
	id, ok := h.runID(w, r)
	if !ok {
		return
	}

	states, err := h.store.DailyReturns(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":  id,
		"returns": states,
	})
}

// GetICSeries returns a run's per-day information coefficients
func (h *RunsHandler) GetICSeries(w http.ResponseWriter, r *http.Request) {
	id, ok := h.runID(w, r)
	if !ok {
		return
	}

	series, err := h.store.ICSeries(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id": id,
		"ic":     series,
	})
}

func (h *RunsHandler) runID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid run id"})
		return 0, false
	}
	return id, true
}

func (h *RunsHandler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	h.logger.WithError(err).Error("Run lookup failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
