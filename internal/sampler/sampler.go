// Package sampler derives one representative probe address from a CIDR block.
package sampler

import (
	"errors"
	"math/rand"
	"net"
	"sync"

	"cidrscout/internal/support"
)

// ErrNoAddress indicates the block could not produce a probe address. The
// caller skips the candidate; this is never a fatal condition.
var ErrNoAddress = errors.New("sampler: no probe address for block")

// smallBlockLimit is the usable-host count below which the whole block is
// sampled uniformly instead of around the midpoint.
const smallBlockLimit = 10

// maxMidpointOffset bounds how far from the block midpoint the probe address
// may drift.
const maxMidpointOffset = 100

// Sampler picks probe addresses. Safe for concurrent use.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a sampler driven by the given source. A nil rng is replaced
// with a time-seeded one by the caller; tests pass a fixed seed.
func New(rng *rand.Rand) *Sampler {
	return &Sampler{rng: rng}
}

// Sample returns one address inside the block. Blocks with more than
// smallBlockLimit usable hosts are probed near the numeric midpoint, with a
// bounded random offset so repeated runs do not always hit the same address.
// Host bits in the input are tolerated.
func (s *Sampler) Sample(cidr string) (string, error) {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return "", ErrNoAddress
	}

	base := network.IP.To4()
	if base == nil {
		return "", ErrNoAddress
	}

	ones, bits := network.Mask.Size()
	if bits != 32 {
		return "", ErrNoAddress
	}

	start := support.IPToUint32(base)
	size := uint32(1) << uint32(bits-ones)

	firstHost, hostCount := usableRange(start, size, ones)
	if hostCount == 0 {
		return support.Uint32ToIP(start + 1).String(), nil
	}

	if hostCount <= smallBlockLimit {
		pick := firstHost + uint32(s.intN(int(hostCount)))
		return support.Uint32ToIP(pick).String(), nil
	}

	middle := firstHost + hostCount/2
	half := hostCount / 2 / 2
	bound := uint32(maxMidpointOffset)
	if half < bound {
		bound = half
	}

	offset := int64(0)
	if bound > 0 {
		offset = int64(s.intN(int(2*bound+1))) - int64(bound)
	}

	return support.Uint32ToIP(uint32(int64(middle) + offset)).String(), nil
}

func (s *Sampler) intN(n int) int {
	if n <= 1 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// usableRange mirrors the usual host enumeration: /31 and /32 count every
// address as usable, anything larger excludes network and broadcast.
func usableRange(start, size uint32, prefixBits int) (uint32, uint32) {
	switch {
	case prefixBits >= 31:
		return start, size
	case size <= 2:
		return 0, 0
	default:
		return start + 1, size - 2
	}
}
