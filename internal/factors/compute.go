package factors

import "github.com/wonho/sentbt/internal/contracts"

// computeLag returns the previous observed sentiment per row.
// The first observation has no prior row and is missing.
func computeLag(group []contracts.SentimentObservation) []contracts.NullFloat {
	values := make([]contracts.NullFloat, len(group))
	for i := range group {
		if i == 0 {
			values[i] = contracts.Null()
			continue
		}
		values[i] = contracts.Float(group[i-1].Sentiment)
	}
	return values
}

// computeShock returns sentiment minus the mean of the previous window
// observations, strictly before the current row. Fewer than window prior
// observations is missing; a partial window is never padded with defaults.
func computeShock(group []contracts.SentimentObservation, window int) []contracts.NullFloat {
	values := make([]contracts.NullFloat, len(group))
	for i := range group {
		if i < window {
			values[i] = contracts.Null()
			continue
		}

		sum := 0.0
		for j := i - window; j < i; j++ {
			sum += group[j].Sentiment
		}
		mean := sum / float64(window)
		values[i] = contracts.Float(group[i].Sentiment - mean)
	}
	return values
}
