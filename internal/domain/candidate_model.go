package domain

// Candidate is one network block discovered for a country. Immutable once
// created by the collector.
type Candidate struct {
	CIDR       string
	OperatorID string
	Country    string
}

// ScoredCandidate pairs a candidate with the probe address that was tested
// and the aggregated reputation verdict for it.
type ScoredCandidate struct {
	Candidate
	ProbeAddress string
	Score        AggregateScore

	// GeoCountry is filled when an mmdb verifier is configured and the probe
	// address resolves to a country. Empty otherwise.
	GeoCountry string
}

// Clean reports whether the candidate is safe to keep under the given save
// threshold. A block can be un-blacklisted yet still too risky to save,
// which is why the save threshold is stricter than the blacklist threshold.
func (s ScoredCandidate) Clean(saveThreshold float64) bool {
	return !s.Score.Blacklisted && s.Score.Value <= saveThreshold
}

// CountryQuota is the slice of the requested total assigned to one country.
type CountryQuota struct {
	Country string
	Target  int
}
