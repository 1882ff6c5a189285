package contracts

import "time"

// JoinedPanelRow is one row of the merged factor/return panel.
// Key (Date, Ticker); missing values propagate, never default to zero.
type JoinedPanelRow struct {
	Date        time.Time `json:"date"`
	Ticker      string    `json:"ticker"`
	FactorValue NullFloat `json:"factor_value"`
	FwdReturn   NullFloat `json:"fwd_return"`
}

// Side is a ticker's portfolio assignment for one date
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
	SideNone  Side = "NONE"
)

// RankedRow is a joined row plus its cross-sectional rank and side.
// Rank is the average rank (1-based, ascending by factor value) among tickers
// with a non-missing factor value on the date; tied values share the average
// of the positions they span. Rank is 0 for ineligible rows.
type RankedRow struct {
	JoinedPanelRow
	Rank float64 `json:"rank"`
	Side Side    `json:"side"`
}
