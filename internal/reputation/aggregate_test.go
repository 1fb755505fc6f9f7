package reputation

import (
	"math"
	"testing"

	"cidrscout/internal/domain"
)

func testAggregator() Aggregator {
	return Aggregator{Primary: "zen", BlacklistThreshold: 15}
}

func TestAggregatePrimaryListedWinsAlone(t *testing.T) {
	agg := testAggregator()

	results := []domain.BackendResult{
		{Backend: "sorbs", Verdict: domain.VerdictClean, Confidence: 0},
		{Backend: "zen", Verdict: domain.VerdictListed, Confidence: 90},
		{Backend: "barracuda", Verdict: domain.VerdictClean, Confidence: 0},
		{Backend: "stopforumspam", Verdict: domain.VerdictListed, Confidence: 10},
	}

	score := agg.Aggregate(results)
	if !score.Blacklisted {
		t.Fatal("primary listed but not blacklisted")
	}
	if score.Value != 90 {
		t.Fatalf("score = %v, want primary confidence 90", score.Value)
	}
}

func TestAggregateNoDeterminateSignalsIsNeutral(t *testing.T) {
	agg := testAggregator()

	results := []domain.BackendResult{
		{Backend: "sorbs", Verdict: domain.VerdictUnknown, Confidence: 25},
		{Backend: "barracuda", Verdict: domain.VerdictUnknown, Confidence: 25},
	}

	score := agg.Aggregate(results)
	if score.Blacklisted {
		t.Fatal("insufficient data must not be treated as bad")
	}
	if score.Value != 50 {
		t.Fatalf("score = %v, want neutral 50", score.Value)
	}
}

func TestAggregateSparseSignalsUseMax(t *testing.T) {
	agg := testAggregator()

	// Two determinate signals, Unknown excluded: max(0, 12) = 12.
	results := []domain.BackendResult{
		{Backend: "sorbs", Verdict: domain.VerdictClean, Confidence: 0},
		{Backend: "stopforumspam", Verdict: domain.VerdictListed, Confidence: 12},
		{Backend: "barracuda", Verdict: domain.VerdictUnknown, Confidence: 25},
	}

	score := agg.Aggregate(results)
	if score.Value != 12 {
		t.Fatalf("score = %v, want max 12", score.Value)
	}
	if score.Blacklisted {
		t.Fatalf("score 12 under threshold 15 flagged blacklisted")
	}
}

func TestAggregateAbundantSignalsUseMean(t *testing.T) {
	agg := testAggregator()

	results := []domain.BackendResult{
		{Backend: "zen", Verdict: domain.VerdictClean, Confidence: 0},
		{Backend: "sorbs", Verdict: domain.VerdictListed, Confidence: 85},
		{Backend: "barracuda", Verdict: domain.VerdictListed, Confidence: 80},
	}

	score := agg.Aggregate(results)
	want := (0.0 + 85 + 80) / 3
	if math.Abs(score.Value-want) > 1e-9 {
		t.Fatalf("score = %v, want mean %v", score.Value, want)
	}
	if !score.Blacklisted {
		t.Fatalf("score %v above threshold 15 not flagged", score.Value)
	}
}

func TestAggregateThresholdIsParameter(t *testing.T) {
	results := []domain.BackendResult{
		{Backend: "sorbs", Verdict: domain.VerdictListed, Confidence: 18},
	}

	strict := Aggregator{Primary: "zen", BlacklistThreshold: 10}
	lax := Aggregator{Primary: "zen", BlacklistThreshold: 20}

	if !strict.Aggregate(results).Blacklisted {
		t.Fatal("strict threshold should flag score 18")
	}
	if lax.Aggregate(results).Blacklisted {
		t.Fatal("lax threshold should pass score 18")
	}
}

func TestAggregateUnknownFallbackExcluded(t *testing.T) {
	agg := testAggregator()

	// Clean(0), Clean(0), Unknown(25): the fallback confidence must not leak
	// into the determinate set, so max(0, 0) = 0.
	results := []domain.BackendResult{
		{Backend: "zen", Verdict: domain.VerdictClean, Confidence: 0},
		{Backend: "sorbs", Verdict: domain.VerdictClean, Confidence: 0},
		{Backend: "stopforumspam", Verdict: domain.VerdictUnknown, Confidence: 25},
	}

	score := agg.Aggregate(results)
	if score.Value != 0 || score.Blacklisted {
		t.Fatalf("score = %+v, want {0 false}", score)
	}
}
