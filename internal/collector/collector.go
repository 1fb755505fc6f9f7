// Package collector turns an unreliable stream of directory lookups into a
// bounded pool of unique candidate blocks per country.
package collector

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"cidrscout/internal/config"
	"cidrscout/internal/domain"
)

// minPoolFloor is the smallest candidate pool worth testing. Roughly half of
// tested blocks turn out dirty, so the pool is oversized relative to the
// per-country target.
const minPoolFloor = 10

// Directory is the external prefix/ASN source. Errors are recoverable: a
// failed call counts as an empty result for that attempt.
type Directory interface {
	SearchOperators(ctx context.Context, country string) ([]domain.OperatorRecord, error)
	ListPrefixes(ctx context.Context, operatorID string) ([]string, error)
}

// OperatorPicker classifies raw directory records and chooses which
// operators to pull prefixes from.
type OperatorPicker interface {
	Classify(country string, raw []domain.OperatorRecord) []domain.OperatorRecord
	SelectOperators(records []domain.OperatorRecord) []domain.OperatorRecord
}

// Collector accumulates unique candidates until the pool is big enough or
// the retry budget runs out.
type Collector struct {
	directory  Directory
	picker     OperatorPicker
	knownIDs   map[string][]string
	retryLimit uint32
	backoff    time.Duration
	clock      Clock
}

func New(directory Directory, picker OperatorPicker, knownIDs map[string][]string, cfg config.CheckerConfig, clock Clock) *Collector {
	if clock == nil {
		clock = SystemClock{}
	}
	retryLimit := cfg.RetryCeiling
	if retryLimit == 0 {
		retryLimit = 1
	}
	return &Collector{
		directory:  directory,
		picker:     picker,
		knownIDs:   knownIDs,
		retryLimit: retryLimit,
		backoff:    time.Duration(cfg.EmptyBackoffMs) * time.Millisecond,
		clock:      clock,
	}
}

// Collect gathers unique candidate blocks for the country. The result may be
// smaller than the pool minimum, or empty, when the retry ceiling is
// exhausted; both are valid partial outcomes, never errors.
func (c *Collector) Collect(ctx context.Context, country string, target int) []domain.Candidate {
	minNeeded := 2 * target
	if minNeeded < minPoolFloor {
		minNeeded = minPoolFloor
	}

	var candidates []domain.Candidate
	seen := make(map[string]struct{})

	for attempt := uint32(1); attempt <= c.retryLimit; attempt++ {
		if ctx.Err() != nil {
			break
		}

		log.Debug("Candidate collection attempt", "country", country, "attempt", attempt, "limit", c.retryLimit)

		operators := c.pickOperators(ctx, country)
		if len(operators) == 0 {
			log.Debug("No operators found in attempt", "country", country, "attempt", attempt)
			c.clock.Sleep(ctx, c.backoff)
			continue
		}

		added := 0
		for _, operator := range operators {
			prefixes, err := c.directory.ListPrefixes(ctx, operator.OperatorID)
			if err != nil {
				log.Warn("Prefix listing failed", "operator", operator.OperatorID, "error", err)
				continue
			}

			for _, cidr := range prefixes {
				if _, dup := seen[cidr]; dup {
					continue
				}
				seen[cidr] = struct{}{}
				candidates = append(candidates, domain.Candidate{
					CIDR:       cidr,
					OperatorID: operator.OperatorID,
					Country:    country,
				})
				added++
			}
		}

		if added == 0 {
			log.Debug("Attempt yielded no new candidates", "country", country, "attempt", attempt)
			c.clock.Sleep(ctx, c.backoff)
			continue
		}

		log.Debug("Collected candidates", "country", country, "new", added, "total", len(candidates))

		if len(candidates) >= minNeeded {
			break
		}
	}

	if len(candidates) == 0 {
		log.Warn("No candidates collected after all attempts", "country", country)
	}

	return candidates
}

func (c *Collector) pickOperators(ctx context.Context, country string) []domain.OperatorRecord {
	raw, err := c.directory.SearchOperators(ctx, country)
	if err != nil {
		log.Warn("Operator search failed", "country", country, "error", err)
		raw = nil
	}

	classified := c.picker.Classify(country, raw)

	// Directory came up empty: fall back to the curated operator list for
	// the country when one exists.
	if len(classified) == 0 {
		for _, id := range c.knownIDs[country] {
			classified = append(classified, domain.OperatorRecord{
				OperatorID:  id,
				CountryCode: country,
				Tier:        domain.TierKnownResidential,
			})
		}
		if len(classified) > 0 {
			log.Debug("Using curated operator list", "country", country, "operators", len(classified))
		}
	}

	return c.picker.SelectOperators(classified)
}
