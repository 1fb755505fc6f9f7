// Package reputation queries abuse blocklists for single addresses and folds
// their answers into one score.
package reputation

import (
	"context"
	"errors"
	"net"

	"cidrscout/internal/domain"
)

// Backend wraps one external reputation source. Probe never fails hard: any
// transport or protocol problem comes back as an Unknown verdict so a single
// unavailable source cannot abort a probe.
type Backend interface {
	Name() string
	Probe(ctx context.Context, ip string) domain.BackendResult
}

// hostResolver is the piece of net.Resolver the DNSBL backends need.
// Tests substitute a fake.
type hostResolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// lookupListed resolves a blocklist query name. The three outcomes map onto
// the verdict space: records mean listed, NXDOMAIN means clean, anything
// else is a transport failure.
func lookupListed(ctx context.Context, resolver hostResolver, query string) ([]string, bool, error) {
	addrs, err := resolver.LookupHost(ctx, query)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return addrs, len(addrs) > 0, nil
}
