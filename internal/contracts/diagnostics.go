package contracts

import "time"

// Diagnostics accumulates recoverable data-quality findings across a run.
// Days and tickers listed here were excluded from aggregates, not silently
// absorbed as zeros; the caller decides whether result quality is acceptable.
type Diagnostics struct {
	PanelRows         int         `json:"panel_rows"`
	MissingFactorRows int         `json:"missing_factor_rows"`
	MissingReturnRows int         `json:"missing_return_rows"`
	ExcludedTickers   []string    `json:"excluded_tickers"`   // insufficient price history
	LowCoverageDays   []time.Time `json:"low_coverage_days"`  // factor coverage below minimum
	ThinRankingDays   []time.Time `json:"thin_ranking_days"`  // fewer eligible tickers than ranking minimum
	ThinICDays        []time.Time `json:"thin_ic_days"`       // fewer valid pairs than IC minimum
}

// HasWarnings reports whether anything was excluded
func (d *Diagnostics) HasWarnings() bool {
	return len(d.ExcludedTickers) > 0 ||
		len(d.LowCoverageDays) > 0 ||
		len(d.ThinRankingDays) > 0 ||
		len(d.ThinICDays) > 0
}
