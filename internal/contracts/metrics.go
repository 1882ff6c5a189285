package contracts

import "time"

// ICPoint is one day's information coefficient
type ICPoint struct {
	Date time.Time `json:"date"`
	IC   float64   `json:"ic"`
}

// MetricsRecord is the summary output of a backtest run. Undefined metrics
// (zero-variance Sharpe, empty IC sample) stay null rather than reading 0.0.
type MetricsRecord struct {
	Sharpe      NullFloat `json:"sharpe"`
	MaxDrawdown NullFloat `json:"max_drawdown"`
	ICMean      NullFloat `json:"ic_mean"`
	ICSeries    []ICPoint `json:"ic_series"`
}
