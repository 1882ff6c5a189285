package contracts

import (
	"sort"
	"strings"
	"time"
)

// SentimentObservation is one row of the input sentiment panel.
// Primary key (Date, Ticker); no duplicates permitted.
type SentimentObservation struct {
	Date        time.Time `json:"date"`
	Ticker      string    `json:"ticker"`
	Sentiment   float64   `json:"sentiment"`
	SourceCount int       `json:"source_count,omitempty"` // 0 when the source did not report it
}

// PriceBar is one (date, adjusted close) pair of a ticker's price series
type PriceBar struct {
	Date     time.Time `json:"date"`
	AdjClose float64   `json:"adj_close"`
}

// PriceSeries maps a ticker to its chronologically ordered adjusted-close
// bars. Dates are strictly increasing per ticker.
type PriceSeries map[string][]PriceBar

// Tickers returns the tickers in deterministic (lexicographic) order
func (p PriceSeries) Tickers() []string {
	tickers := make([]string, 0, len(p))
	for ticker := range p {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	return tickers
}

// Day truncates a timestamp to its UTC calendar-day boundary
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NormalizeTicker uppercases and trims a ticker symbol
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
