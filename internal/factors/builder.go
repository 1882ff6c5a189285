package factors

import (
	"fmt"
	"sort"

	"github.com/wonho/sentbt/internal/contracts"
	"github.com/wonho/sentbt/pkg/logger"
)

// Builder derives factor records from the sentiment panel. It is a pure
// function of the input panel and the factor spec: tickers are grouped and
// processed independently in chronological order, and a factor at date d only
// sees the ticker's observations at or before d.
type Builder struct {
	logger *logger.Logger
}

// NewBuilder creates a new factor builder
func NewBuilder(log *logger.Logger) *Builder {
	return &Builder{logger: log}
}

// Build produces one FactorRecord per (date, ticker) present in the panel.
// Gaps in a ticker's date sequence are preserved: lag and shock operate on
// the previous observed row, not the previous calendar day.
func (b *Builder) Build(panel []contracts.SentimentObservation, spec contracts.FactorSpec) ([]contracts.FactorRecord, error) {
	if err := validateSpec(spec); err != nil {
		return nil, err
	}

	groups, tickers, err := groupByTicker(panel)
	if err != nil {
		return nil, err
	}

	records := make([]contracts.FactorRecord, 0, len(panel))
	missing := 0
	for _, ticker := range tickers {
		var values []contracts.NullFloat
		switch spec.Kind {
		case contracts.FactorSentL1:
			values = computeLag(groups[ticker])
		case contracts.FactorSentShock:
			values = computeShock(groups[ticker], spec.Window)
		default:
			return nil, contracts.ConfigurationError{
				Field:   "factor.name",
				Message: fmt.Sprintf("unsupported factor kind %d", spec.Kind),
			}
		}

		for i, obs := range groups[ticker] {
			if !values[i].Valid {
				missing++
			}
			records = append(records, contracts.FactorRecord{
				Date:   obs.Date,
				Ticker: obs.Ticker,
				Factor: spec.Kind.String(),
				Value:  values[i],
			})
		}
	}

	// Global (date, ticker) order so downstream stages never depend on map
	// iteration order.
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].Ticker < records[j].Ticker
	})

	b.logger.WithFields(map[string]interface{}{
		"factor":  spec.Kind.String(),
		"tickers": len(tickers),
		"rows":    len(records),
		"missing": missing,
	}).Info("Factor build completed")

	return records, nil
}

// validateSpec rejects malformed factor parameters before any computation
func validateSpec(spec contracts.FactorSpec) error {
	if spec.Kind == contracts.FactorSentShock && spec.Window <= 0 {
		return contracts.ConfigurationError{
			Field:   "factor.shock_window",
			Message: "must be > 0",
		}
	}
	return nil
}

// groupByTicker splits the panel into per-ticker chronological sequences.
// Duplicate (date, ticker) keys are an upstream contract breach.
func groupByTicker(panel []contracts.SentimentObservation) (map[string][]contracts.SentimentObservation, []string, error) {
	groups := make(map[string][]contracts.SentimentObservation)
	for _, obs := range panel {
		groups[obs.Ticker] = append(groups[obs.Ticker], obs)
	}

	tickers := make([]string, 0, len(groups))
	for ticker := range groups {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	for _, ticker := range tickers {
		group := groups[ticker]
		sort.Slice(group, func(i, j int) bool {
			return group[i].Date.Before(group[j].Date)
		})
		for i := 1; i < len(group); i++ {
			if !group[i].Date.After(group[i-1].Date) {
				return nil, nil, contracts.StructuralError{
					Stage: "factors",
					Message: fmt.Sprintf("duplicate observation %s/%s",
						group[i].Date.Format("2006-01-02"), ticker),
				}
			}
		}
		groups[ticker] = group
	}

	return groups, tickers, nil
}
