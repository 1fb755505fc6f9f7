// Package quota splits a requested candidate total across countries.
package quota

import "cidrscout/internal/domain"

// Distribute assigns total across countries as evenly as possible. Every
// country gets at least one slot; the division remainder goes to the first
// countries in input order. Callers must validate inputs first (see
// pipeline preconditions); empty input yields nil.
func Distribute(total int, countries []string) []domain.CountryQuota {
	if len(countries) == 0 || total <= 0 {
		return nil
	}

	base := total / len(countries)
	if base < 1 {
		base = 1
	}
	remainder := total % len(countries)
	if total < len(countries) {
		remainder = 0
	}

	quotas := make([]domain.CountryQuota, 0, len(countries))
	for i, country := range countries {
		target := base
		if i < remainder {
			target++
		}
		quotas = append(quotas, domain.CountryQuota{Country: country, Target: target})
	}

	return quotas
}
