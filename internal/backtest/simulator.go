package backtest

import (
	"sort"
	"time"

	"github.com/wonho/sentbt/internal/contracts"
	"github.com/wonho/sentbt/pkg/logger"
)

// State is the simulator's position state. The model rebalances daily from
// the ranking alone; the state exists to make the rebalance boundary
// explicit, not to carry positions across days.
type State string

const (
	StateNoPosition State = "NO_POSITION"
	StateHolding    State = "HOLDING"
)

// Simulator turns the ranked panel into a daily long/short equal-weight
// portfolio. Each held side carries gross weight 1.0 split equally; the daily
// return is mean(realized long forward returns) minus mean(realized short
// forward returns).
type Simulator struct {
	logger *logger.Logger
}

// NewSimulator creates a new portfolio simulator
func NewSimulator(log *logger.Logger) *Simulator {
	return &Simulator{logger: log}
}

// Run walks the ranked panel date by date and emits one DailyPortfolioState
// per day with at least one held side. A held ticker whose realized forward
// return is missing is dropped from its side's average for that day; it never
// poisons the day's aggregate. A side that is empty, or whose realized
// returns are all missing, contributes zero and the other side alone sets the
// return direction.
func (s *Simulator) Run(ranked []contracts.RankedRow) []contracts.DailyPortfolioState {
	byDate := make(map[time.Time][]contracts.RankedRow)
	for _, row := range ranked {
		byDate[row.Date] = append(byDate[row.Date], row)
	}

	dates := make([]time.Time, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	states := make([]contracts.DailyPortfolioState, 0, len(dates))
	state := StateNoPosition

	for _, date := range dates {
		longs, shorts := splitSides(byDate[date])
		if len(longs) == 0 && len(shorts) == 0 {
			state = StateNoPosition
			continue
		}
		state = StateHolding

		longMean := sideMean(byDate[date], contracts.SideLong)
		shortMean := sideMean(byDate[date], contracts.SideShort)

		states = append(states, contracts.DailyPortfolioState{
			Date:         date,
			LongTickers:  longs,
			ShortTickers: shorts,
			DailyReturn:  longMean - shortMean,
		})
	}

	s.logger.WithFields(map[string]interface{}{
		"dates":       len(dates),
		"held_days":   len(states),
		"final_state": string(state),
	}).Info("Portfolio simulation completed")

	return states
}

// splitSides returns the day's held tickers per side, sorted
func splitSides(rows []contracts.RankedRow) (longs, shorts []string) {
	for _, row := range rows {
		switch row.Side {
		case contracts.SideLong:
			longs = append(longs, row.Ticker)
		case contracts.SideShort:
			shorts = append(shorts, row.Ticker)
		}
	}
	sort.Strings(longs)
	sort.Strings(shorts)
	return longs, shorts
}

// sideMean averages the realized forward returns of one side, skipping
// missing values. An empty or fully-missing side contributes 0.
func sideMean(rows []contracts.RankedRow, side contracts.Side) float64 {
	sum := 0.0
	count := 0
	for _, row := range rows {
		if row.Side != side || !row.FwdReturn.Valid {
			continue
		}
		sum += row.FwdReturn.Float64
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
