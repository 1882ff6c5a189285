package returns

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonho/sentbt/internal/contracts"
	"github.com/wonho/sentbt/pkg/logger"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func bar(d int, close float64) contracts.PriceBar {
	return contracts.PriceBar{Date: day(d), AdjClose: close}
}

func TestAlign_HorizonOne(t *testing.T) {
	aligner := NewAligner(logger.NewNop())
	prices := contracts.PriceSeries{
		"AAPL": {bar(1, 100), bar(2, 110), bar(3, 99)},
	}

	out, err := aligner.Align(prices, 1)
	require.NoError(t, err)
	require.Len(t, out, 3)

	r1 := out[Key{Date: day(1), Ticker: "AAPL"}]
	require.True(t, r1.Valid)
	assert.InDelta(t, 0.10, r1.Float64, 1e-12)

	r2 := out[Key{Date: day(2), Ticker: "AAPL"}]
	require.True(t, r2.Valid)
	assert.InDelta(t, -0.10, r2.Float64, 1e-12)

	// End of series: missing, not zero.
	r3 := out[Key{Date: day(3), Ticker: "AAPL"}]
	assert.False(t, r3.Valid)
}

func TestAlign_TradingDayIndexSkipsCalendarGaps(t *testing.T) {
	aligner := NewAligner(logger.NewNop())
	// Friday then Monday: horizon 1 must bridge the weekend.
	prices := contracts.PriceSeries{
		"AAPL": {bar(5, 100), bar(8, 105)},
	}

	out, err := aligner.Align(prices, 1)
	require.NoError(t, err)

	r := out[Key{Date: day(5), Ticker: "AAPL"}]
	require.True(t, r.Valid)
	assert.InDelta(t, 0.05, r.Float64, 1e-12)
}

func TestAlign_LongerHorizon(t *testing.T) {
	aligner := NewAligner(logger.NewNop())
	prices := contracts.PriceSeries{
		"MSFT": {bar(1, 200), bar(2, 210), bar(3, 220), bar(4, 240)},
	}

	out, err := aligner.Align(prices, 3)
	require.NoError(t, err)

	r := out[Key{Date: day(1), Ticker: "MSFT"}]
	require.True(t, r.Valid)
	assert.InDelta(t, 0.20, r.Float64, 1e-12)

	// Only the first bar has a full 3-day horizon.
	for _, d := range []int{2, 3, 4} {
		assert.False(t, out[Key{Date: day(d), Ticker: "MSFT"}].Valid, "day %d", d)
	}
}

func TestAlign_InvalidHorizon(t *testing.T) {
	aligner := NewAligner(logger.NewNop())

	for _, horizon := range []int{0, -1} {
		_, err := aligner.Align(contracts.PriceSeries{}, horizon)
		var cfgErr contracts.ConfigurationError
		require.True(t, errors.As(err, &cfgErr), "horizon %d", horizon)
	}
}

func TestAlign_UnsortedPricesFail(t *testing.T) {
	aligner := NewAligner(logger.NewNop())
	prices := contracts.PriceSeries{
		"AAPL": {bar(2, 100), bar(1, 90)},
	}

	_, err := aligner.Align(prices, 1)
	var structErr contracts.StructuralError
	require.True(t, errors.As(err, &structErr))
	assert.Equal(t, "returns", structErr.Stage)
}

func TestAlign_DuplicateDatesFail(t *testing.T) {
	aligner := NewAligner(logger.NewNop())
	prices := contracts.PriceSeries{
		"AAPL": {bar(1, 100), bar(1, 101)},
	}

	_, err := aligner.Align(prices, 1)
	var structErr contracts.StructuralError
	require.True(t, errors.As(err, &structErr))
}

func TestSortedKeys(t *testing.T) {
	aligner := NewAligner(logger.NewNop())
	prices := contracts.PriceSeries{
		"MSFT": {bar(1, 200), bar(2, 210)},
		"AAPL": {bar(1, 100), bar(2, 110)},
	}

	out, err := aligner.Align(prices, 1)
	require.NoError(t, err)

	keys := SortedKeys(out)
	want := []Key{
		{Date: day(1), Ticker: "AAPL"},
		{Date: day(1), Ticker: "MSFT"},
		{Date: day(2), Ticker: "AAPL"},
		{Date: day(2), Ticker: "MSFT"},
	}
	assert.Equal(t, want, keys)
}
