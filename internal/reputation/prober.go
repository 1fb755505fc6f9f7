package reputation

import (
	"context"

	"golang.org/x/sync/errgroup"

	"cidrscout/internal/domain"
)

// Prober runs every configured backend against one address and aggregates
// the answers. The primary backend is consulted first: when it reports a
// listing, its verdict alone decides the score and the secondary sources are
// not contacted at all.
type Prober struct {
	primary     Backend
	secondaries []Backend
	aggregator  Aggregator
}

// NewProber builds a prober. primary may appear in backends or not; it is
// always probed exactly once.
func NewProber(primary Backend, secondaries []Backend, aggregator Aggregator) *Prober {
	return &Prober{primary: primary, secondaries: secondaries, aggregator: aggregator}
}

// Probe scores one address. It never returns an error: unavailable sources
// degrade to Unknown results and the aggregator absorbs them.
func (p *Prober) Probe(ctx context.Context, ip string) domain.AggregateScore {
	results := make([]domain.BackendResult, 0, len(p.secondaries)+1)

	if p.primary != nil {
		primaryResult := p.primary.Probe(ctx, ip)
		results = append(results, primaryResult)

		if primaryResult.Verdict == domain.VerdictListed {
			return p.aggregator.Aggregate(results)
		}
	}

	if len(p.secondaries) > 0 {
		slots := make([]domain.BackendResult, len(p.secondaries))

		g, groupCtx := errgroup.WithContext(ctx)
		for i, backend := range p.secondaries {
			i, backend := i, backend
			g.Go(func() error {
				slots[i] = backend.Probe(groupCtx, ip)
				return nil
			})
		}
		// Backends never return errors; Wait only orders the writes.
		_ = g.Wait()

		results = append(results, slots...)
	}

	return p.aggregator.Aggregate(results)
}
