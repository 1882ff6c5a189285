package panel

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonho/sentbt/internal/contracts"
	"github.com/wonho/sentbt/internal/returns"
	"github.com/wonho/sentbt/pkg/logger"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func factor(d int, ticker string, value contracts.NullFloat) contracts.FactorRecord {
	return contracts.FactorRecord{Date: day(d), Ticker: ticker, Factor: "SENT_L1", Value: value}
}

func bars(n int) []contracts.PriceBar {
	out := make([]contracts.PriceBar, n)
	for i := range out {
		out[i] = contracts.PriceBar{Date: day(i + 1), AdjClose: 100 + float64(i)}
	}
	return out
}

func TestJoin_LeftJoinKeepsMissingReturns(t *testing.T) {
	joiner := NewJoiner(logger.NewNop())
	factorRecords := []contracts.FactorRecord{
		factor(1, "AAPL", contracts.Float(0.2)),
		factor(2, "AAPL", contracts.Float(0.3)),
	}
	fwd := map[returns.Key]contracts.NullFloat{
		{Date: day(1), Ticker: "AAPL"}: contracts.Float(0.01),
		// day 2 intentionally absent
	}
	prices := contracts.PriceSeries{"AAPL": bars(5)}

	result, err := joiner.Join(factorRecords, fwd, prices, Params{MinCoverage: 0.5, MinHistory: 1})
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)

	assert.Equal(t, contracts.Float(0.01), result.Rows[0].FwdReturn)
	assert.False(t, result.Rows[1].FwdReturn.Valid, "absent return must join as missing, not zero")
	assert.Equal(t, 1, result.Diagnostics.MissingReturnRows)
}

func TestJoin_DuplicateKeyIsFatal(t *testing.T) {
	joiner := NewJoiner(logger.NewNop())
	factorRecords := []contracts.FactorRecord{
		factor(1, "AAPL", contracts.Float(0.2)),
		factor(1, "AAPL", contracts.Float(0.4)),
	}
	prices := contracts.PriceSeries{"AAPL": bars(5)}

	_, err := joiner.Join(factorRecords, nil, prices, Params{MinCoverage: 0, MinHistory: 1})

	var structErr contracts.StructuralError
	require.True(t, errors.As(err, &structErr))
	assert.Equal(t, "join", structErr.Stage)
}

func TestJoin_ShortHistoryTickerExcluded(t *testing.T) {
	joiner := NewJoiner(logger.NewNop())
	factorRecords := []contracts.FactorRecord{
		factor(1, "AAPL", contracts.Float(0.2)),
		factor(1, "NEWCO", contracts.Float(0.9)),
	}
	prices := contracts.PriceSeries{
		"AAPL":  bars(10),
		"NEWCO": bars(2),
	}

	result, err := joiner.Join(factorRecords, nil, prices, Params{MinCoverage: 0, MinHistory: 5})
	require.NoError(t, err)

	require.Len(t, result.Rows, 1)
	assert.Equal(t, "AAPL", result.Rows[0].Ticker)
	assert.Equal(t, []string{"NEWCO"}, result.Diagnostics.ExcludedTickers)
}

func TestJoin_MissingPriceSeriesCountsAsShortHistory(t *testing.T) {
	joiner := NewJoiner(logger.NewNop())
	factorRecords := []contracts.FactorRecord{
		factor(1, "GHOST", contracts.Float(0.5)),
	}

	result, err := joiner.Join(factorRecords, nil, contracts.PriceSeries{}, Params{MinCoverage: 0, MinHistory: 1})
	require.NoError(t, err)

	assert.Empty(t, result.Rows)
	assert.Equal(t, []string{"GHOST"}, result.Diagnostics.ExcludedTickers)
}

func TestJoin_LowCoverageDayExcludedNotDropped(t *testing.T) {
	joiner := NewJoiner(logger.NewNop())
	factorRecords := []contracts.FactorRecord{
		// Day 1: both factors present, coverage 1.0.
		factor(1, "AAPL", contracts.Float(0.2)),
		factor(1, "MSFT", contracts.Float(0.1)),
		// Day 2: one of two missing, coverage 0.5 below minimum.
		factor(2, "AAPL", contracts.Null()),
		factor(2, "MSFT", contracts.Float(0.3)),
	}
	prices := contracts.PriceSeries{"AAPL": bars(5), "MSFT": bars(5)}

	result, err := joiner.Join(factorRecords, nil, prices, Params{MinCoverage: 0.6, MinHistory: 1})
	require.NoError(t, err)

	// Rows stay in the panel; the day is flagged for ranking to skip.
	assert.Len(t, result.Rows, 4)
	assert.True(t, result.ExcludedDays[day(2)])
	assert.False(t, result.ExcludedDays[day(1)])
	assert.Equal(t, []time.Time{day(2)}, result.Diagnostics.LowCoverageDays)
}

func TestJoin_RowsSortedAndDeterministic(t *testing.T) {
	joiner := NewJoiner(logger.NewNop())
	factorRecords := []contracts.FactorRecord{
		factor(2, "MSFT", contracts.Float(0.4)),
		factor(1, "MSFT", contracts.Float(0.3)),
		factor(2, "AAPL", contracts.Float(0.2)),
		factor(1, "AAPL", contracts.Float(0.1)),
	}
	prices := contracts.PriceSeries{"AAPL": bars(5), "MSFT": bars(5)}

	result, err := joiner.Join(factorRecords, nil, prices, Params{MinCoverage: 0, MinHistory: 1})
	require.NoError(t, err)

	wantOrder := []struct {
		d      int
		ticker string
	}{
		{1, "AAPL"}, {1, "MSFT"}, {2, "AAPL"}, {2, "MSFT"},
	}
	for i, want := range wantOrder {
		assert.Equal(t, day(want.d), result.Rows[i].Date)
		assert.Equal(t, want.ticker, result.Rows[i].Ticker)
	}
}
