package domain

// Tier ranks how likely an operator is to serve residential customers.
// Lower values are preferred during candidate discovery.
type Tier int

const (
	TierKnownResidential Tier = iota + 1
	TierKeywordResidential
	TierUnspecified
	TierFallbackAny
)

func (t Tier) String() string {
	switch t {
	case TierKnownResidential:
		return "known-residential"
	case TierKeywordResidential:
		return "keyword-residential"
	case TierUnspecified:
		return "unspecified"
	case TierFallbackAny:
		return "fallback-any"
	default:
		return "unknown"
	}
}

// OperatorRecord is a classified network-operator entry from the ASN directory.
// The tier is assigned once by the classifier and never recomputed.
type OperatorRecord struct {
	OperatorID  string
	DisplayName string
	Description string
	CountryCode string
	Tier        Tier
}
