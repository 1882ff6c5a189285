package ranking

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonho/sentbt/internal/contracts"
	"github.com/wonho/sentbt/internal/panel"
	"github.com/wonho/sentbt/pkg/logger"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func row(d int, ticker string, value contracts.NullFloat) contracts.JoinedPanelRow {
	return contracts.JoinedPanelRow{Date: day(d), Ticker: ticker, FactorValue: value}
}

func testPanel(rows ...contracts.JoinedPanelRow) *panel.Panel {
	return &panel.Panel{Rows: rows, ExcludedDays: map[time.Time]bool{}}
}

func defaultParams() Params {
	return Params{LongPercentile: 0.5, ShortPercentile: 0.5, MinEligible: 2}
}

func sideOf(t *testing.T, result *Result, d int, ticker string) contracts.Side {
	t.Helper()
	for _, r := range result.Rows {
		if r.Date.Equal(day(d)) && r.Ticker == ticker {
			return r.Side
		}
	}
	t.Fatalf("no ranked row for %d/%s", d, ticker)
	return contracts.SideNone
}

func rankOf(t *testing.T, result *Result, d int, ticker string) float64 {
	t.Helper()
	for _, r := range result.Rows {
		if r.Date.Equal(day(d)) && r.Ticker == ticker {
			return r.Rank
		}
	}
	t.Fatalf("no ranked row for %d/%s", d, ticker)
	return 0
}

func TestRank_TwoTickerSplit(t *testing.T) {
	// With exactly two eligible tickers and 50/50 percentiles, one is LONG
	// and one is SHORT, never NONE/NONE.
	ranker := NewRanker(logger.NewNop())
	p := testPanel(
		row(1, "AAPL", contracts.Float(0.8)),
		row(1, "MSFT", contracts.Float(0.2)),
	)

	result, err := ranker.Rank(p, defaultParams())
	require.NoError(t, err)

	assert.Equal(t, contracts.SideLong, sideOf(t, result, 1, "AAPL"))
	assert.Equal(t, contracts.SideShort, sideOf(t, result, 1, "MSFT"))
}

func TestRank_SidesDisjointAndBounded(t *testing.T) {
	ranker := NewRanker(logger.NewNop())
	tickers := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"}
	rows := make([]contracts.JoinedPanelRow, len(tickers))
	for i, ticker := range tickers {
		rows[i] = row(1, ticker, contracts.Float(float64(i)))
	}

	params := Params{LongPercentile: 0.3, ShortPercentile: 0.3, MinEligible: 2}
	result, err := ranker.Rank(testPanel(rows...), params)
	require.NoError(t, err)

	longs, shorts := map[string]bool{}, map[string]bool{}
	for _, r := range result.Rows {
		switch r.Side {
		case contracts.SideLong:
			longs[r.Ticker] = true
		case contracts.SideShort:
			shorts[r.Ticker] = true
		}
	}

	// floor(0.3 * 10) = 3 per side.
	assert.Len(t, longs, 3)
	assert.Len(t, shorts, 3)
	for ticker := range longs {
		assert.False(t, shorts[ticker], "%s assigned to both sides", ticker)
	}

	// Highest factor values go long.
	assert.True(t, longs["J"] && longs["I"] && longs["H"])
	assert.True(t, shorts["A"] && shorts["B"] && shorts["C"])
}

func TestRank_AverageRankForTies(t *testing.T) {
	ranker := NewRanker(logger.NewNop())
	p := testPanel(
		row(1, "A", contracts.Float(1.0)),
		row(1, "B", contracts.Float(2.0)),
		row(1, "C", contracts.Float(2.0)),
		row(1, "D", contracts.Float(3.0)),
	)

	params := Params{LongPercentile: 0.25, ShortPercentile: 0.25, MinEligible: 2}
	result, err := ranker.Rank(p, params)
	require.NoError(t, err)

	assert.Equal(t, 1.0, rankOf(t, result, 1, "A"))
	// B and C tie for positions 2 and 3: both get 2.5.
	assert.Equal(t, 2.5, rankOf(t, result, 1, "B"))
	assert.Equal(t, 2.5, rankOf(t, result, 1, "C"))
	assert.Equal(t, 4.0, rankOf(t, result, 1, "D"))
}

func TestRank_TieAtBoundaryIsDeterministic(t *testing.T) {
	ranker := NewRanker(logger.NewNop())
	build := func(order []contracts.JoinedPanelRow) *Result {
		result, err := ranker.Rank(testPanel(order...), defaultParams())
		require.NoError(t, err)
		return result
	}

	rowsA := []contracts.JoinedPanelRow{
		row(1, "AAPL", contracts.Float(0.5)),
		row(1, "MSFT", contracts.Float(0.5)),
	}
	rowsB := []contracts.JoinedPanelRow{rowsA[1], rowsA[0]}

	resultA, resultB := build(rowsA), build(rowsB)

	// Identical assignment regardless of insertion order.
	assert.Equal(t, sideOf(t, resultA, 1, "AAPL"), sideOf(t, resultB, 1, "AAPL"))
	assert.Equal(t, sideOf(t, resultA, 1, "MSFT"), sideOf(t, resultB, 1, "MSFT"))
}

func TestRank_MissingFactorIneligible(t *testing.T) {
	ranker := NewRanker(logger.NewNop())
	p := testPanel(
		row(1, "AAPL", contracts.Float(0.8)),
		row(1, "MSFT", contracts.Float(0.2)),
		row(1, "GOOG", contracts.Null()),
	)

	result, err := ranker.Rank(p, defaultParams())
	require.NoError(t, err)

	assert.Equal(t, contracts.SideNone, sideOf(t, result, 1, "GOOG"))
	assert.Equal(t, 0.0, rankOf(t, result, 1, "GOOG"))
	// floor(0.5 * 2 eligible) = 1 per side.
	assert.Equal(t, contracts.SideLong, sideOf(t, result, 1, "AAPL"))
	assert.Equal(t, contracts.SideShort, sideOf(t, result, 1, "MSFT"))
}

func TestRank_ThinDayProducesNoAssignment(t *testing.T) {
	ranker := NewRanker(logger.NewNop())
	p := testPanel(row(1, "AAPL", contracts.Float(0.8)))

	result, err := ranker.Rank(p, defaultParams())
	require.NoError(t, err)

	assert.Equal(t, contracts.SideNone, sideOf(t, result, 1, "AAPL"))
	assert.Equal(t, []time.Time{day(1)}, result.ThinDays)
}

func TestRank_ExcludedDaySkipped(t *testing.T) {
	ranker := NewRanker(logger.NewNop())
	p := &panel.Panel{
		Rows: []contracts.JoinedPanelRow{
			row(1, "AAPL", contracts.Float(0.8)),
			row(1, "MSFT", contracts.Float(0.2)),
		},
		ExcludedDays: map[time.Time]bool{day(1): true},
	}

	result, err := ranker.Rank(p, defaultParams())
	require.NoError(t, err)

	assert.Equal(t, contracts.SideNone, sideOf(t, result, 1, "AAPL"))
	assert.Equal(t, contracts.SideNone, sideOf(t, result, 1, "MSFT"))
	assert.Empty(t, result.ThinDays, "excluded days are reported by the joiner, not as thin")
}

func TestRank_ParamValidation(t *testing.T) {
	ranker := NewRanker(logger.NewNop())
	tests := []struct {
		name   string
		params Params
	}{
		{"zero long", Params{LongPercentile: 0, ShortPercentile: 0.3, MinEligible: 2}},
		{"long at one", Params{LongPercentile: 1, ShortPercentile: 0.3, MinEligible: 2}},
		{"negative short", Params{LongPercentile: 0.3, ShortPercentile: -0.1, MinEligible: 2}},
		{"sum above one", Params{LongPercentile: 0.6, ShortPercentile: 0.6, MinEligible: 2}},
		{"min eligible too low", Params{LongPercentile: 0.3, ShortPercentile: 0.3, MinEligible: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ranker.Rank(testPanel(), tt.params)
			var cfgErr contracts.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
		})
	}
}
