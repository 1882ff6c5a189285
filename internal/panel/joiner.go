package panel

import (
	"fmt"
	"sort"
	"time"

	"github.com/wonho/sentbt/internal/contracts"
	"github.com/wonho/sentbt/internal/returns"
	"github.com/wonho/sentbt/pkg/logger"
)

// Joiner merges factor records with forward returns into the joined panel
// and enforces its invariants: unique (date, ticker) keys, minimum price
// history per ticker, minimum per-day factor coverage. Coverage failures are
// soft (the day is excluded from ranking and reported); duplicate keys are an
// upstream contract breach and fatal.
type Joiner struct {
	logger *logger.Logger
}

// Params are the validation thresholds applied at the join boundary
type Params struct {
	MinCoverage float64 // minimum non-missing factor fraction per day
	MinHistory  int     // minimum price bars before a ticker may contribute
}

// Panel is the joined, validated factor/return panel
type Panel struct {
	Rows         []contracts.JoinedPanelRow // sorted by (date, ticker)
	ExcludedDays map[time.Time]bool         // low-coverage days, kept out of ranking
	Diagnostics  contracts.Diagnostics
}

// NewJoiner creates a new joiner
func NewJoiner(log *logger.Logger) *Joiner {
	return &Joiner{logger: log}
}

// Join left-joins factors with forward returns on (date, ticker). Factor rows
// keep a missing forward return when no price alignment exists; neither side
// is ever defaulted to zero.
func (j *Joiner) Join(
	factorRecords []contracts.FactorRecord,
	fwdReturns map[returns.Key]contracts.NullFloat,
	prices contracts.PriceSeries,
	params Params,
) (*Panel, error) {
	eligible, excludedTickers := j.filterHistory(factorRecords, prices, params.MinHistory)

	rows := make([]contracts.JoinedPanelRow, 0, len(eligible))
	seen := make(map[returns.Key]bool, len(eligible))
	missingFactor := 0
	missingReturn := 0

	for _, record := range eligible {
		key := returns.Key{Date: record.Date, Ticker: record.Ticker}
		if seen[key] {
			return nil, contracts.StructuralError{
				Stage: "join",
				Message: fmt.Sprintf("duplicate key %s/%s",
					record.Date.Format("2006-01-02"), record.Ticker),
			}
		}
		seen[key] = true

		fwd, ok := fwdReturns[key]
		if !ok {
			fwd = contracts.Null()
		}

		if !record.Value.Valid {
			missingFactor++
		}
		if !fwd.Valid {
			missingReturn++
		}

		rows = append(rows, contracts.JoinedPanelRow{
			Date:        record.Date,
			Ticker:      record.Ticker,
			FactorValue: record.Value,
			FwdReturn:   fwd,
		})
	}

	sort.Slice(rows, func(i, k int) bool {
		if !rows[i].Date.Equal(rows[k].Date) {
			return rows[i].Date.Before(rows[k].Date)
		}
		return rows[i].Ticker < rows[k].Ticker
	})

	excludedDays, lowCoverageDays := j.applyCoverage(rows, params.MinCoverage)

	result := &Panel{
		Rows:         rows,
		ExcludedDays: excludedDays,
		Diagnostics: contracts.Diagnostics{
			PanelRows:         len(rows),
			MissingFactorRows: missingFactor,
			MissingReturnRows: missingReturn,
			ExcludedTickers:   excludedTickers,
			LowCoverageDays:   lowCoverageDays,
		},
	}

	j.logger.WithFields(map[string]interface{}{
		"rows":             len(rows),
		"missing_factor":   missingFactor,
		"missing_return":   missingReturn,
		"excluded_tickers": len(excludedTickers),
		"excluded_days":    len(lowCoverageDays),
	}).Info("Panel join completed")

	return result, nil
}

// filterHistory drops tickers whose price history is shorter than the
// configured minimum. They are reported, not silently removed.
func (j *Joiner) filterHistory(
	records []contracts.FactorRecord,
	prices contracts.PriceSeries,
	minHistory int,
) ([]contracts.FactorRecord, []string) {
	excludedSet := make(map[string]bool)
	eligible := make([]contracts.FactorRecord, 0, len(records))

	for _, record := range records {
		if len(prices[record.Ticker]) < minHistory {
			excludedSet[record.Ticker] = true
			continue
		}
		eligible = append(eligible, record)
	}

	excluded := make([]string, 0, len(excludedSet))
	for ticker := range excludedSet {
		excluded = append(excluded, ticker)
	}
	sort.Strings(excluded)

	return eligible, excluded
}

// applyCoverage marks days whose non-missing factor fraction is below the
// minimum. The day's rows stay in the panel; ranking skips the day.
func (j *Joiner) applyCoverage(rows []contracts.JoinedPanelRow, minCoverage float64) (map[time.Time]bool, []time.Time) {
	total := make(map[time.Time]int)
	covered := make(map[time.Time]int)
	for _, row := range rows {
		total[row.Date]++
		if row.FactorValue.Valid {
			covered[row.Date]++
		}
	}

	excluded := make(map[time.Time]bool)
	var days []time.Time
	for date, n := range total {
		if float64(covered[date])/float64(n) < minCoverage {
			excluded[date] = true
			days = append(days, date)
		}
	}
	sort.Slice(days, func(i, k int) bool { return days[i].Before(days[k]) })

	return excluded, days
}
