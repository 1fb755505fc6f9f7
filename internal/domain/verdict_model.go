package domain

// Verdict is the outcome of one reputation backend for one address.
type Verdict int

const (
	// VerdictClean means the source has no record for the address.
	VerdictClean Verdict = iota
	// VerdictListed means the source has an abuse record for the address.
	VerdictListed
	// VerdictUnknown means the source could not be queried. Never fatal.
	VerdictUnknown
)

func (v Verdict) String() string {
	switch v {
	case VerdictClean:
		return "clean"
	case VerdictListed:
		return "listed"
	case VerdictUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// BackendResult is one backend's answer for one probe address. Confidence is
// 0-100; for Unknown verdicts it is a low-weight fallback only.
type BackendResult struct {
	Backend    string
	Verdict    Verdict
	Confidence float64
}

// Determinate reports whether the backend produced an actual signal rather
// than failing outright.
func (r BackendResult) Determinate() bool {
	return r.Verdict != VerdictUnknown
}

// AggregateScore is the combined verdict for one probe address.
// Lower values are cleaner.
type AggregateScore struct {
	Value       float64
	Blacklisted bool
}
