// Package classifier tags raw operator records with a residential-likelihood
// tier and selects which operators to pull prefixes from.
package classifier

import (
	"math/rand"
	"sort"
	"strings"
	"sync"

	"cidrscout/internal/config"
	"cidrscout/internal/domain"
)

// Classifier applies the configured vocabularies. Safe for concurrent use.
type Classifier struct {
	cfg config.ClassifierConfig

	mu  sync.Mutex
	rng *rand.Rand
}

func New(cfg config.ClassifierConfig, rng *rand.Rand) *Classifier {
	return &Classifier{cfg: cfg, rng: rng}
}

// Classify assigns a tier to every record that survives filtering. Records
// from other countries are dropped unless the requested country is the
// configured country-agnostic code. Records matching the exclusion
// vocabulary are never residential and are dropped. When exclusion empties
// the whole input, the first few raw records come back as fallback-tier so
// discovery never starves on over-filtering.
func (c *Classifier) Classify(country string, raw []domain.OperatorRecord) []domain.OperatorRecord {
	country = strings.ToUpper(country)
	allowList := c.cfg.KnownOperators[country]

	classified := make([]domain.OperatorRecord, 0, len(raw))
	for _, rec := range raw {
		if !strings.EqualFold(rec.CountryCode, country) && country != strings.ToUpper(c.cfg.CountryAgnostic) {
			continue
		}

		text := strings.ToUpper(rec.DisplayName + " " + rec.Description)

		if containsAny(text, c.cfg.ExcludeKeywords) {
			continue
		}

		switch {
		case containsAny(text, allowList):
			rec.Tier = domain.TierKnownResidential
		case containsAny(text, c.cfg.ResidentialKeywords):
			rec.Tier = domain.TierKeywordResidential
		default:
			rec.Tier = domain.TierUnspecified
		}

		classified = append(classified, rec)
	}

	if len(classified) == 0 && len(raw) > 0 {
		take := c.cfg.FallbackTake
		if take <= 0 || take > len(raw) {
			take = len(raw)
		}
		for _, rec := range raw[:take] {
			rec.Tier = domain.TierFallbackAny
			classified = append(classified, rec)
		}
	}

	return classified
}

// SelectOperators picks between MinSelect and MaxSelect operators to query,
// always including at least one known- or keyword-residential operator when
// one exists. The remaining slots are filled by sampling without
// replacement, so repeated discovery attempts spread across the pool.
func (c *Classifier) SelectOperators(records []domain.OperatorRecord) []domain.OperatorRecord {
	if len(records) == 0 {
		return nil
	}

	pool := make([]domain.OperatorRecord, len(records))
	copy(pool, records)
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Tier < pool[j].Tier
	})

	want := c.selectCount(len(pool))

	selected := make([]domain.OperatorRecord, 0, want)
	taken := make(map[string]struct{}, want)

	// Guarantee one high-tier operator when the pool has any.
	highEnd := 0
	for highEnd < len(pool) && pool[highEnd].Tier <= domain.TierKeywordResidential {
		highEnd++
	}
	if highEnd > 0 {
		pick := pool[c.intN(highEnd)]
		selected = append(selected, pick)
		taken[pick.OperatorID] = struct{}{}
	}

	for len(selected) < want {
		remaining := make([]domain.OperatorRecord, 0, len(pool))
		for _, rec := range pool {
			if _, ok := taken[rec.OperatorID]; !ok {
				remaining = append(remaining, rec)
			}
		}
		if len(remaining) == 0 {
			break
		}
		pick := remaining[c.intN(len(remaining))]
		selected = append(selected, pick)
		taken[pick.OperatorID] = struct{}{}
	}

	return selected
}

func (c *Classifier) selectCount(available int) int {
	min := c.cfg.MinSelect
	max := c.cfg.MaxSelect
	if min < 1 {
		min = 1
	}
	if max < min {
		max = min
	}
	if max > available {
		max = available
	}
	if min > max {
		min = max
	}
	return min + c.intN(max-min+1)
}

func (c *Classifier) intN(n int) int {
	if n <= 1 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Intn(n)
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, strings.ToUpper(kw)) {
			return true
		}
	}
	return false
}
