package dataload

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonho/sentbt/pkg/logger"
)

func TestParseSentimentPanel(t *testing.T) {
	loader := NewLoader(logger.NewNop())
	csv := strings.Join([]string{
		"date,ticker,sentiment,source_count",
		"2024-01-02,aapl,0.45,12",
		"2024-01-02,MSFT,-0.10,",
		"2024-01-03,AAPL,0.30,8",
	}, "\n")

	rows, err := loader.ParseSentimentPanel(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "AAPL", rows[0].Ticker, "tickers normalized to upper case")
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.Equal(t, 0.45, rows[0].Sentiment)
	assert.Equal(t, 12, rows[0].SourceCount)

	assert.Equal(t, -0.10, rows[1].Sentiment)
	assert.Zero(t, rows[1].SourceCount)
}

func TestParseSentimentPanel_MalformedRowIsFatal(t *testing.T) {
	loader := NewLoader(logger.NewNop())

	tests := []struct {
		name string
		csv  string
	}{
		{"bad date", "date,ticker,sentiment\n01/02/2024,AAPL,0.5"},
		{"bad sentiment", "date,ticker,sentiment\n2024-01-02,AAPL,high"},
		{"empty ticker", "date,ticker,sentiment\n2024-01-02, ,0.5"},
		{"bad source count", "date,ticker,sentiment,source_count\n2024-01-02,AAPL,0.5,many"},
		{"too few columns", "date,ticker\n2024-01-02,AAPL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.ParseSentimentPanel(strings.NewReader(tt.csv))
			assert.Error(t, err)
		})
	}
}

func TestParsePrices(t *testing.T) {
	loader := NewLoader(logger.NewNop())
	// Rows deliberately out of order within a ticker.
	csv := strings.Join([]string{
		"date,ticker,adj_close",
		"2024-01-03,AAPL,187.2",
		"2024-01-02,AAPL,185.6",
		"2024-01-02,msft,376.0",
	}, "\n")

	prices, err := loader.ParsePrices(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, prices, 2)

	aapl := prices["AAPL"]
	require.Len(t, aapl, 2)
	assert.True(t, aapl[0].Date.Before(aapl[1].Date), "bars sorted chronologically")
	assert.Equal(t, 185.6, aapl[0].AdjClose)

	assert.Len(t, prices["MSFT"], 1)
}

func TestParsePrices_DuplicateDateIsFatal(t *testing.T) {
	loader := NewLoader(logger.NewNop())
	csv := strings.Join([]string{
		"date,ticker,adj_close",
		"2024-01-02,AAPL,185.6",
		"2024-01-02,AAPL,185.7",
	}, "\n")

	_, err := loader.ParsePrices(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate date")
}

func TestLoad_MissingFile(t *testing.T) {
	loader := NewLoader(logger.NewNop())

	_, err := loader.LoadSentimentPanel("/nonexistent/panel.csv")
	assert.Error(t, err)

	_, err = loader.LoadPrices("/nonexistent/prices.csv")
	assert.Error(t, err)
}
