package contracts

import "time"

// DailyPortfolioState is one rebalance day of the long/short portfolio.
// Each side carries gross weight 1.0 split equally across its tickers.
// Only days with at least one held side produce a state.
type DailyPortfolioState struct {
	Date         time.Time `json:"date"`
	LongTickers  []string  `json:"long_tickers"`  // sorted
	ShortTickers []string  `json:"short_tickers"` // sorted
	DailyReturn  float64   `json:"daily_return"`
}

// ReturnSeries extracts the ordered daily return series from portfolio states
func ReturnSeries(states []DailyPortfolioState) []float64 {
	returns := make([]float64, len(states))
	for i, s := range states {
		returns[i] = s.DailyReturn
	}
	return returns
}
