package reputation

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"cidrscout/internal/domain"
	"cidrscout/internal/support"
)

// ZenBackend checks a Spamhaus ZEN style zone. It is the primary signal: the
// zone encodes the listing category in the last octet of the answer, and the
// categories carry different severities.
type ZenBackend struct {
	zone     string
	timeout  time.Duration
	resolver hostResolver
}

func NewZenBackend(zone string, timeout time.Duration) *ZenBackend {
	return &ZenBackend{zone: zone, timeout: timeout, resolver: net.DefaultResolver}
}

func (b *ZenBackend) Name() string { return "zen" }

func (b *ZenBackend) Probe(ctx context.Context, ip string) domain.BackendResult {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	query := support.ReverseOctets(ip)
	if query == "" {
		return domain.BackendResult{Backend: b.Name(), Verdict: domain.VerdictUnknown, Confidence: 50}
	}

	addrs, listed, err := lookupListed(ctx, b.resolver, query+"."+b.zone)
	if err != nil {
		return domain.BackendResult{Backend: b.Name(), Verdict: domain.VerdictUnknown, Confidence: 50}
	}
	if !listed {
		return domain.BackendResult{Backend: b.Name(), Verdict: domain.VerdictClean, Confidence: 0}
	}

	return domain.BackendResult{
		Backend:    b.Name(),
		Verdict:    domain.VerdictListed,
		Confidence: zenSeverity(addrs),
	}
}

// zenSeverity maps the 127.0.0.x return code bits to a confidence. Exploited
// hosts rank worst, policy listings of dynamic ranges least bad, and codes
// we cannot parse still count as a solid listing.
func zenSeverity(addrs []string) float64 {
	for _, addr := range addrs {
		parts := strings.Split(addr, ".")
		if len(parts) != 4 || parts[0] != "127" || parts[1] != "0" || parts[2] != "0" {
			continue
		}
		code, err := strconv.Atoi(parts[3])
		if err != nil {
			continue
		}
		switch {
		case code&16 != 0: // exploits / compromised machines
			return 100
		case code&2 != 0: // direct spam sources
			return 95
		case code&4 != 0: // snowshoe ranges
			return 90
		case code&8 != 0: // policy listing, residential/dynamic
			return 85
		default:
			return 80
		}
	}
	return 90
}

// MultiZoneBackend checks several zones of one operator (SORBS style) and
// reports listed on the first hit. Zones that fail to answer are skipped so
// one dead zone cannot mask the others.
type MultiZoneBackend struct {
	name     string
	zones    []string
	timeout  time.Duration
	resolver hostResolver
}

func NewMultiZoneBackend(name string, zones []string, timeout time.Duration) *MultiZoneBackend {
	return &MultiZoneBackend{name: name, zones: zones, timeout: timeout, resolver: net.DefaultResolver}
}

func (b *MultiZoneBackend) Name() string { return b.name }

func (b *MultiZoneBackend) Probe(ctx context.Context, ip string) domain.BackendResult {
	query := support.ReverseOctets(ip)
	if query == "" {
		return domain.BackendResult{Backend: b.name, Verdict: domain.VerdictUnknown, Confidence: 25}
	}

	for _, zone := range b.zones {
		zoneCtx, cancel := context.WithTimeout(ctx, b.timeout)
		_, listed, err := lookupListed(zoneCtx, b.resolver, query+"."+zone)
		cancel()

		if err != nil {
			continue
		}
		if listed {
			return domain.BackendResult{Backend: b.name, Verdict: domain.VerdictListed, Confidence: 85}
		}
	}

	return domain.BackendResult{Backend: b.name, Verdict: domain.VerdictClean, Confidence: 0}
}

// SingleZoneBackend checks exactly one zone (Barracuda style).
type SingleZoneBackend struct {
	name     string
	zone     string
	timeout  time.Duration
	resolver hostResolver
}

func NewSingleZoneBackend(name, zone string, timeout time.Duration) *SingleZoneBackend {
	return &SingleZoneBackend{name: name, zone: zone, timeout: timeout, resolver: net.DefaultResolver}
}

func (b *SingleZoneBackend) Name() string { return b.name }

func (b *SingleZoneBackend) Probe(ctx context.Context, ip string) domain.BackendResult {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	query := support.ReverseOctets(ip)
	if query == "" {
		return domain.BackendResult{Backend: b.name, Verdict: domain.VerdictUnknown, Confidence: 25}
	}

	_, listed, err := lookupListed(ctx, b.resolver, query+"."+b.zone)
	if err != nil {
		return domain.BackendResult{Backend: b.name, Verdict: domain.VerdictUnknown, Confidence: 25}
	}
	if listed {
		return domain.BackendResult{Backend: b.name, Verdict: domain.VerdictListed, Confidence: 80}
	}
	return domain.BackendResult{Backend: b.name, Verdict: domain.VerdictClean, Confidence: 0}
}
