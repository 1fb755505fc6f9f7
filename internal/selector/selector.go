// Package selector scores a pool of candidate blocks and keeps the best.
package selector

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"cidrscout/internal/config"
	"cidrscout/internal/domain"
)

// AddressSampler derives the probe address for a block.
type AddressSampler interface {
	Sample(cidr string) (string, error)
}

// Prober scores one address across all reputation backends.
type Prober interface {
	Probe(ctx context.Context, ip string) domain.AggregateScore
}

// Selector probes candidates with a bounded worker pool. A shared rate
// limiter keeps the aggregate probe rate at the spacing the backends expect;
// final ordering is imposed by sorting, not by execution order.
type Selector struct {
	sampler       AddressSampler
	prober        Prober
	threads       int
	limiter       *rate.Limiter
	saveThreshold float64
}

func New(sampler AddressSampler, prober Prober, cfg config.CheckerConfig) *Selector {
	threads := int(cfg.Threads)
	if threads < 1 {
		threads = 1
	}

	gap := time.Duration(cfg.ProbeGapMs) * time.Millisecond
	limiter := rate.NewLimiter(rate.Inf, 1)
	if gap > 0 {
		limiter = rate.NewLimiter(rate.Every(gap), 1)
	}

	return &Selector{
		sampler:       sampler,
		prober:        prober,
		threads:       threads,
		limiter:       limiter,
		saveThreshold: cfg.SaveThreshold,
	}
}

type scoredSlot struct {
	index  int
	scored domain.ScoredCandidate
}

// Select scores every candidate and returns up to target of them, cleanest
// first. Candidates whose block cannot produce a probe address are skipped.
// When fewer than target clean candidates exist, the best-scored remainder
// backfills the gap rather than returning a short result.
func (s *Selector) Select(ctx context.Context, candidates []domain.Candidate, target int) []domain.ScoredCandidate {
	if len(candidates) == 0 || target <= 0 {
		return nil
	}

	scored := s.scoreAll(ctx, candidates)
	if len(scored) == 0 {
		return nil
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].scored.Score.Value != scored[j].scored.Score.Value {
			return scored[i].scored.Score.Value < scored[j].scored.Score.Value
		}
		return scored[i].index < scored[j].index
	})

	var clean, rest []scoredSlot
	for _, slot := range scored {
		if slot.scored.Clean(s.saveThreshold) {
			clean = append(clean, slot)
		} else {
			rest = append(rest, slot)
		}
	}

	picked := clean
	if len(picked) > target {
		picked = picked[:target]
	}
	if len(picked) < target {
		missing := target - len(picked)
		if missing > len(rest) {
			missing = len(rest)
		}
		if missing > 0 {
			log.Debug("Backfilling with best non-clean candidates", "clean", len(picked), "backfill", missing)
			picked = append(picked, rest[:missing]...)
		}
	}

	result := make([]domain.ScoredCandidate, 0, len(picked))
	for _, slot := range picked {
		result = append(result, slot.scored)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Score.Value < result[j].Score.Value
	})

	return result
}

func (s *Selector) scoreAll(ctx context.Context, candidates []domain.Candidate) []scoredSlot {
	jobs := make(chan int)
	results := make([]scoredSlot, 0, len(candidates))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for w := 0; w < s.threads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				candidate := candidates[idx]

				address, err := s.sampler.Sample(candidate.CIDR)
				if err != nil {
					log.Debug("Skipping untestable block", "cidr", candidate.CIDR)
					continue
				}

				if err := s.limiter.Wait(ctx); err != nil {
					return
				}

				score := s.prober.Probe(ctx, address)

				mu.Lock()
				results = append(results, scoredSlot{
					index: idx,
					scored: domain.ScoredCandidate{
						Candidate:    candidate,
						ProbeAddress: address,
						Score:        score,
					},
				})
				mu.Unlock()
			}
		}()
	}

	for idx := range candidates {
		select {
		case jobs <- idx:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return results
		}
	}
	close(jobs)
	wg.Wait()

	return results
}
