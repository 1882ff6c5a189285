package returns

import (
	"fmt"
	"sort"
	"time"

	"github.com/wonho/sentbt/internal/contracts"
	"github.com/wonho/sentbt/pkg/logger"
)

// Aligner computes forward returns from a price table. Alignment is strictly
// by trading-day index within each ticker's own series, never by calendar
// offset, so weekends and holidays cannot corrupt the horizon.
type Aligner struct {
	logger *logger.Logger
}

// Key identifies one forward-return observation
type Key struct {
	Date   time.Time
	Ticker string
}

// NewAligner creates a new return aligner
func NewAligner(log *logger.Logger) *Aligner {
	return &Aligner{logger: log}
}

// Align produces fwd_return(ticker, date) = p[i+h]/p[i] - 1 for every bar i
// of every ticker, where h is the horizon in trading days. Bars within h of
// the series end yield a missing value, which stays distinguishable from a
// zero return.
func (a *Aligner) Align(prices contracts.PriceSeries, horizon int) (map[Key]contracts.NullFloat, error) {
	if horizon <= 0 {
		return nil, contracts.ConfigurationError{
			Field:   "returns.horizon_days",
			Message: "must be > 0",
		}
	}

	out := make(map[Key]contracts.NullFloat)
	missing := 0

	for _, ticker := range prices.Tickers() {
		bars := prices[ticker]
		if err := checkOrdered(ticker, bars); err != nil {
			return nil, err
		}

		for i, bar := range bars {
			key := Key{Date: bar.Date, Ticker: ticker}
			if i+horizon >= len(bars) {
				out[key] = contracts.Null()
				missing++
				continue
			}
			if bar.AdjClose == 0 {
				out[key] = contracts.Null()
				missing++
				continue
			}
			out[key] = contracts.Float(bars[i+horizon].AdjClose/bar.AdjClose - 1)
		}
	}

	a.logger.WithFields(map[string]interface{}{
		"horizon": horizon,
		"tickers": len(prices),
		"rows":    len(out),
		"missing": missing,
	}).Info("Forward return alignment completed")

	return out, nil
}

// checkOrdered rejects unsorted or duplicated price dates
func checkOrdered(ticker string, bars []contracts.PriceBar) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Date.After(bars[i-1].Date) {
			return contracts.StructuralError{
				Stage: "returns",
				Message: fmt.Sprintf("price dates not strictly increasing for %s at %s",
					ticker, bars[i].Date.Format("2006-01-02")),
			}
		}
	}
	return nil
}

// SortedKeys returns the map keys in deterministic (date, ticker) order
func SortedKeys(returns map[Key]contracts.NullFloat) []Key {
	keys := make([]Key, 0, len(returns))
	for key := range returns {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if !keys[i].Date.Equal(keys[j].Date) {
			return keys[i].Date.Before(keys[j].Date)
		}
		return keys[i].Ticker < keys[j].Ticker
	})
	return keys
}
