package stooq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDailyCSV(t *testing.T) {
	payload := `Date,Open,High,Low,Close,Volume
2024-01-02,185.64,186.95,184.35,185.64,52430000
2024-01-03,184.22,185.88,183.43,184.25,58410000
`
	bars, err := ParseDailyCSV(payload)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, 185.64, bars[0].AdjClose)
	assert.Equal(t, 184.25, bars[1].AdjClose)
}

func TestParseDailyCSV_NoData(t *testing.T) {
	bars, err := ParseDailyCSV("No data")
	require.NoError(t, err)
	assert.Empty(t, bars)

	bars, err = ParseDailyCSV("")
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestParseDailyCSV_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"html error page", "<html><body>blocked</body></html>"},
		{"bad date", "Date,Open,High,Low,Close,Volume\n01/02/2024,1,1,1,1,1"},
		{"bad close", "Date,Open,High,Low,Close,Volume\n2024-01-02,1,1,1,n/a,1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDailyCSV(tt.payload)
			assert.Error(t, err)
		})
	}
}

func TestSymbol(t *testing.T) {
	assert.Equal(t, "aapl.us", Symbol("AAPL"))
	assert.Equal(t, "brk-b.us", Symbol("BRK.B"))
	assert.Equal(t, "msft.us", Symbol(" msft "))
}
