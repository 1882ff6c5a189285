package ranking

import (
	"math"
	"sort"
	"time"

	"github.com/wonho/sentbt/internal/contracts"
	"github.com/wonho/sentbt/internal/panel"
	"github.com/wonho/sentbt/pkg/logger"
)

// Ranker cross-sectionally ranks tickers by factor value, one date at a
// time. Tied factor values share the average of the rank positions they
// span. Side membership is decided over a single deterministic total order
// (factor value ascending, ticker ascending): the bottom floor(pS*N) names
// are SHORT, the top floor(pL*N) are LONG. Insertion order never matters.
type Ranker struct {
	logger *logger.Logger
}

// Params control side sizing and the per-day eligibility floor
type Params struct {
	LongPercentile  float64
	ShortPercentile float64
	MinEligible     int // days with fewer eligible tickers produce no assignment
}

// Result is the ranked panel plus the days too thin to rank
type Result struct {
	Rows     []contracts.RankedRow
	ThinDays []time.Time
}

// NewRanker creates a new ranker
func NewRanker(log *logger.Logger) *Ranker {
	return &Ranker{logger: log}
}

// Rank produces one RankedRow per panel row. Rows on low-coverage or thin
// days, and rows with a missing factor value, carry rank 0 and side NONE.
func (r *Ranker) Rank(p *panel.Panel, params Params) (*Result, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	rows := make([]contracts.RankedRow, len(p.Rows))
	for i, row := range p.Rows {
		rows[i] = contracts.RankedRow{JoinedPanelRow: row, Rank: 0, Side: contracts.SideNone}
	}

	byDate := groupIndexesByDate(p.Rows)
	dates := sortedDates(byDate)

	var thinDays []time.Time
	longCount, shortCount := 0, 0

	for _, date := range dates {
		if p.ExcludedDays[date] {
			continue
		}

		eligible := eligibleIndexes(p.Rows, byDate[date])
		if len(eligible) < params.MinEligible {
			// Empty portfolio for the day, not an error.
			thinDays = append(thinDays, date)
			continue
		}

		rankDay(rows, p.Rows, eligible, params)
		for _, idx := range eligible {
			switch rows[idx].Side {
			case contracts.SideLong:
				longCount++
			case contracts.SideShort:
				shortCount++
			}
		}
	}

	r.logger.WithFields(map[string]interface{}{
		"dates":       len(dates),
		"thin_days":   len(thinDays),
		"long_slots":  longCount,
		"short_slots": shortCount,
	}).Info("Ranking completed")

	return &Result{Rows: rows, ThinDays: thinDays}, nil
}

// validateParams enforces the percentile contract
func validateParams(params Params) error {
	if params.LongPercentile <= 0 || params.LongPercentile >= 1 {
		return contracts.ConfigurationError{Field: "ranking.long_percentile", Message: "must be in (0, 1)"}
	}
	if params.ShortPercentile <= 0 || params.ShortPercentile >= 1 {
		return contracts.ConfigurationError{Field: "ranking.short_percentile", Message: "must be in (0, 1)"}
	}
	if params.LongPercentile+params.ShortPercentile > 1 {
		return contracts.ConfigurationError{Field: "ranking", Message: "long_percentile + short_percentile must be <= 1"}
	}
	if params.MinEligible < 2 {
		return contracts.ConfigurationError{Field: "ranking.min_eligible", Message: "must be >= 2"}
	}
	return nil
}

// rankDay assigns ranks and sides for one date's eligible row indexes
func rankDay(out []contracts.RankedRow, rows []contracts.JoinedPanelRow, eligible []int, params Params) {
	// Deterministic ascending total order: factor value, then ticker.
	order := make([]int, len(eligible))
	copy(order, eligible)
	sort.Slice(order, func(a, b int) bool {
		va, vb := rows[order[a]].FactorValue.Float64, rows[order[b]].FactorValue.Float64
		if va != vb {
			return va < vb
		}
		return rows[order[a]].Ticker < rows[order[b]].Ticker
	})

	// Average rank across tied values.
	n := len(order)
	pos := 0
	for pos < n {
		end := pos
		for end+1 < n && rows[order[end+1]].FactorValue.Float64 == rows[order[pos]].FactorValue.Float64 {
			end++
		}
		avg := float64(pos+1+end+1) / 2
		for k := pos; k <= end; k++ {
			out[order[k]].Rank = avg
		}
		pos = end + 1
	}

	// floor(p*N) names per side; the counts can never overlap because the
	// percentiles sum to at most 1.
	nLong := int(math.Floor(params.LongPercentile * float64(n)))
	nShort := int(math.Floor(params.ShortPercentile * float64(n)))

	for k := 0; k < nShort; k++ {
		out[order[k]].Side = contracts.SideShort
	}
	for k := n - nLong; k < n; k++ {
		out[order[k]].Side = contracts.SideLong
	}
}

// eligibleIndexes selects the day's rows with a non-missing factor value
func eligibleIndexes(rows []contracts.JoinedPanelRow, indexes []int) []int {
	eligible := make([]int, 0, len(indexes))
	for _, idx := range indexes {
		if rows[idx].FactorValue.Valid {
			eligible = append(eligible, idx)
		}
	}
	return eligible
}

func groupIndexesByDate(rows []contracts.JoinedPanelRow) map[time.Time][]int {
	byDate := make(map[time.Time][]int)
	for i, row := range rows {
		byDate[row.Date] = append(byDate[row.Date], i)
	}
	return byDate
}

func sortedDates(byDate map[time.Time][]int) []time.Time {
	dates := make([]time.Time, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(a, b int) bool { return dates[a].Before(dates[b]) })
	return dates
}
