// Package pipeline drives one discovery run from country quotas through
// candidate collection, probing and selection.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"cidrscout/internal/domain"
	"cidrscout/internal/quota"
)

var (
	ErrNoCountries    = errors.New("pipeline: no countries requested")
	ErrInvalidCountry = errors.New("pipeline: invalid country code")
	ErrInvalidTotal   = errors.New("pipeline: requested total must be positive")
)

// CandidateSource produces unscored candidate networks for one country.
type CandidateSource interface {
	Collect(ctx context.Context, country string, target int) []domain.Candidate
}

// CandidateSelector probes candidates and keeps the best ones.
type CandidateSelector interface {
	Select(ctx context.Context, candidates []domain.Candidate, target int) []domain.ScoredCandidate
}

// GeoResolver annotates probe addresses with their observed country.
type GeoResolver interface {
	Country(ip string) (string, error)
}

// CountryResult holds the outcome for one requested country.
type CountryResult struct {
	Country    string
	Target     int
	Candidates []domain.ScoredCandidate
}

// Result is the outcome of a whole run in request order.
type Result struct {
	RequestedTotal int
	FoundTotal     int
	Countries      []string
	Quotas         []domain.CountryQuota
	PerCountry     []CountryResult
}

// Runner wires the per-country stages together.
type Runner struct {
	source   CandidateSource
	selector CandidateSelector
	geo      GeoResolver
}

func NewRunner(source CandidateSource, selector CandidateSelector, geo GeoResolver) *Runner {
	return &Runner{
		source:   source,
		selector: selector,
		geo:      geo,
	}
}

// Run validates the request, splits the total across countries and executes
// each country in request order. A country that yields nothing is reported
// with an empty result instead of failing the run.
func (r *Runner) Run(ctx context.Context, countries []string, total int) (*Result, error) {
	normalized, err := normalizeCountries(countries)
	if err != nil {
		return nil, err
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTotal, total)
	}

	quotas := quota.Distribute(total, normalized)

	result := &Result{
		RequestedTotal: total,
		Countries:      normalized,
		Quotas:         quotas,
	}

	for _, q := range quotas {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		log.Info("Collecting candidates", "country", q.Country, "target", q.Target)
		candidates := r.source.Collect(ctx, q.Country, q.Target)
		if len(candidates) == 0 {
			log.Warn("No candidates found", "country", q.Country)
			result.PerCountry = append(result.PerCountry, CountryResult{
				Country: q.Country,
				Target:  q.Target,
			})
			continue
		}

		selected := r.selector.Select(ctx, candidates, q.Target)
		r.annotateGeo(selected, q.Country)

		log.Info("Country finished",
			"country", q.Country,
			"target", q.Target,
			"collected", len(candidates),
			"selected", len(selected),
		)

		result.PerCountry = append(result.PerCountry, CountryResult{
			Country:    q.Country,
			Target:     q.Target,
			Candidates: selected,
		})
		result.FoundTotal += len(selected)
	}

	return result, nil
}

// Candidates flattens the per-country results preserving request order.
func (r *Result) Candidates() []domain.ScoredCandidate {
	var all []domain.ScoredCandidate
	for _, country := range r.PerCountry {
		all = append(all, country.Candidates...)
	}
	return all
}

func (r *Runner) annotateGeo(candidates []domain.ScoredCandidate, expected string) {
	if r.geo == nil {
		return
	}

	for i := range candidates {
		iso, err := r.geo.Country(candidates[i].ProbeAddress)
		if err != nil || iso == "" {
			continue
		}

		candidates[i].GeoCountry = iso
		if iso != expected {
			log.Warn("GeoIP country mismatch",
				"cidr", candidates[i].CIDR,
				"expected", expected,
				"observed", iso,
			)
		}
	}
}

func normalizeCountries(countries []string) ([]string, error) {
	if len(countries) == 0 {
		return nil, ErrNoCountries
	}

	normalized := make([]string, 0, len(countries))
	for _, raw := range countries {
		code := strings.ToUpper(strings.TrimSpace(raw))
		if len(code) != 2 || !isAlpha(code) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCountry, raw)
		}
		normalized = append(normalized, code)
	}

	return normalized, nil
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
