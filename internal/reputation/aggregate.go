package reputation

import "cidrscout/internal/domain"

// neutralScore is returned when no backend produced a determinate signal.
// Insufficient data is never treated as bad.
const neutralScore = 50

// meanMinSignals is the determinate-signal count at which aggregation
// switches from max to arithmetic mean. With abundant evidence, averaging
// smooths out a single noisy source; with sparse evidence, taking the worst
// signal keeps the score from under-reporting risk.
const meanMinSignals = 3

// Aggregator folds per-backend results into one score. The threshold is a
// deployment parameter, not a property of the algorithm.
type Aggregator struct {
	// Primary names the backend whose Listed verdict decides the score on
	// its own.
	Primary string
	// BlacklistThreshold is the score above which a candidate counts as
	// blacklisted.
	BlacklistThreshold float64
}

// Aggregate combines the results for one probe address.
func (a Aggregator) Aggregate(results []domain.BackendResult) domain.AggregateScore {
	for _, r := range results {
		if r.Backend == a.Primary && r.Verdict == domain.VerdictListed {
			return domain.AggregateScore{Value: r.Confidence, Blacklisted: true}
		}
	}

	var confidences []float64
	for _, r := range results {
		if r.Determinate() {
			confidences = append(confidences, r.Confidence)
		}
	}

	if len(confidences) == 0 {
		return domain.AggregateScore{Value: neutralScore, Blacklisted: false}
	}

	var value float64
	if len(confidences) >= meanMinSignals {
		sum := 0.0
		for _, c := range confidences {
			sum += c
		}
		value = sum / float64(len(confidences))
	} else {
		for _, c := range confidences {
			if c > value {
				value = c
			}
		}
	}

	return domain.AggregateScore{
		Value:       value,
		Blacklisted: value > a.BlacklistThreshold,
	}
}
