package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/wonho/sentbt/internal/contracts"
	"github.com/wonho/sentbt/internal/panel"
	"github.com/wonho/sentbt/pkg/logger"
)

// Engine computes performance statistics from the daily return series and
// the joined panel. All functions are pure; undefined results (zero-variance
// Sharpe, empty samples) are reported as missing, never as 0.0.
type Engine struct {
	logger *logger.Logger
}

// Params control annualization and the per-day IC eligibility floor
type Params struct {
	AnnualizationFactor float64
	MinICPairs          int
}

// NewEngine creates a new metrics engine
func NewEngine(log *logger.Logger) *Engine {
	return &Engine{logger: log}
}

// Compute assembles the metrics record. Days with fewer valid (factor,
// return) pairs than the minimum are excluded from the IC sample and
// returned for diagnostics.
func (e *Engine) Compute(dailyReturns []float64, p *panel.Panel, params Params) (contracts.MetricsRecord, []time.Time) {
	record := contracts.MetricsRecord{
		Sharpe:      Sharpe(dailyReturns, params.AnnualizationFactor),
		MaxDrawdown: MaxDrawdown(dailyReturns),
	}

	icSeries, thinDays := e.icByDay(p, params.MinICPairs)
	record.ICSeries = icSeries
	record.ICMean = icMean(icSeries)

	e.logger.WithFields(map[string]interface{}{
		"return_days":  len(dailyReturns),
		"ic_days":      len(icSeries),
		"thin_ic_days": len(thinDays),
		"sharpe":       record.Sharpe.String(),
		"max_drawdown": record.MaxDrawdown.String(),
		"ic_mean":      record.ICMean.String(),
	}).Info("Metrics computed")

	return record, thinDays
}

// Sharpe is the annualized Sharpe ratio of a daily return series using the
// sample standard deviation. Undefined for fewer than two observations or a
// zero-variance series.
func Sharpe(returns []float64, annualizationFactor float64) contracts.NullFloat {
	n := len(returns)
	if n < 2 {
		return contracts.Null()
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(n)

	variance := 0.0
	for _, r := range returns {
		diff := r - mean
		variance += diff * diff
	}
	variance /= float64(n - 1)

	std := math.Sqrt(variance)
	if std == 0 {
		return contracts.Null()
	}

	return contracts.Float(mean / std * math.Sqrt(annualizationFactor))
}

// EquityCurve compounds a daily return series into cumulative equity
// starting from 1.0, one point per return
func EquityCurve(returns []float64) []float64 {
	curve := make([]float64, len(returns))
	equity := 1.0
	for i, r := range returns {
		equity *= 1 + r
		curve[i] = equity
	}
	return curve
}

// MaxDrawdown is the minimum of equity(t)/runningMax(equity)[t] - 1 over the
// cumulative equity curve starting at 1. Always <= 0; exactly 0 only for a
// monotonically non-decreasing curve. Undefined for an empty series.
func MaxDrawdown(returns []float64) contracts.NullFloat {
	if len(returns) == 0 {
		return contracts.Null()
	}

	peak := 1.0
	maxDD := 0.0

	for _, equity := range EquityCurve(returns) {
		if equity > peak {
			peak = equity
		}
		if dd := equity/peak - 1; dd < maxDD {
			maxDD = dd
		}
	}

	return contracts.Float(maxDD)
}

// icByDay computes the per-day Spearman rank correlation between factor
// value and forward return over valid pairs, skipping low-coverage days.
func (e *Engine) icByDay(p *panel.Panel, minPairs int) ([]contracts.ICPoint, []time.Time) {
	type pairs struct {
		factors []float64
		fwd     []float64
	}

	byDate := make(map[time.Time]*pairs)
	for _, row := range p.Rows {
		if p.ExcludedDays[row.Date] {
			continue
		}
		if !row.FactorValue.Valid || !row.FwdReturn.Valid {
			continue
		}
		pp := byDate[row.Date]
		if pp == nil {
			pp = &pairs{}
			byDate[row.Date] = pp
		}
		pp.factors = append(pp.factors, row.FactorValue.Float64)
		pp.fwd = append(pp.fwd, row.FwdReturn.Float64)
	}

	dates := make([]time.Time, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	var series []contracts.ICPoint
	var thinDays []time.Time
	for _, date := range dates {
		pp := byDate[date]
		if len(pp.factors) < minPairs {
			thinDays = append(thinDays, date)
			continue
		}
		ic, ok := Spearman(pp.factors, pp.fwd)
		if !ok {
			// Constant cross-section: correlation undefined, excluded.
			thinDays = append(thinDays, date)
			continue
		}
		series = append(series, contracts.ICPoint{Date: date, IC: ic})
	}

	return series, thinDays
}

// icMean averages the per-day IC series. No eligible day means undefined,
// not zero.
func icMean(series []contracts.ICPoint) contracts.NullFloat {
	if len(series) == 0 {
		return contracts.Null()
	}
	sum := 0.0
	for _, point := range series {
		sum += point.IC
	}
	return contracts.Float(sum / float64(len(series)))
}

// Spearman is the rank correlation of two equal-length samples, using
// average ranks for ties. Returns false when either sample has zero rank
// variance or fewer than two observations.
func Spearman(xs, ys []float64) (float64, bool) {
	if len(xs) != len(ys) || len(xs) < 2 {
		return 0, false
	}
	return pearson(averageRanks(xs), averageRanks(ys))
}

// averageRanks assigns 1-based ranks with ties sharing the average of the
// positions they span
func averageRanks(values []float64) []float64 {
	n := len(values)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

	ranks := make([]float64, n)
	pos := 0
	for pos < n {
		end := pos
		for end+1 < n && values[order[end+1]] == values[order[pos]] {
			end++
		}
		avg := float64(pos+1+end+1) / 2
		for k := pos; k <= end; k++ {
			ranks[order[k]] = avg
		}
		pos = end + 1
	}

	return ranks
}

// pearson is the correlation of two equal-length samples
func pearson(xs, ys []float64) (float64, bool) {
	n := float64(len(xs))

	meanX, meanY := 0.0, 0.0
	for i := range xs {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= n
	meanY /= n

	cov, varX, varY := 0.0, 0.0, 0.0
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return 0, false
	}

	return cov / math.Sqrt(varX*varY), true
}
