// Package geolite resolves probe addresses to countries using a local
// GeoLite2 database. It is an optional verification layer: when no database
// is configured, lookups report "unavailable" and the pipeline carries on.
package geolite

import (
	"errors"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// ErrUnavailable indicates no country database is loaded.
var ErrUnavailable = errors.New("geolite: country database not configured")

// Resolver answers country lookups. A nil Resolver is valid and always
// returns ErrUnavailable.
type Resolver struct {
	db *geoip2.Reader
}

// Open loads a GeoLite2-Country mmdb from disk. An empty path yields a nil
// resolver, which callers treat as verification disabled.
func Open(path string) (*Resolver, error) {
	if path == "" {
		return nil, nil
	}
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geolite: open %s: %w", path, err)
	}
	return &Resolver{db: db}, nil
}

// Country returns the ISO country code for an address.
func (r *Resolver) Country(ip string) (string, error) {
	if r == nil || r.db == nil {
		return "", ErrUnavailable
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", fmt.Errorf("geolite: invalid address %q", ip)
	}

	record, err := r.db.Country(parsed)
	if err != nil {
		return "", fmt.Errorf("geolite: lookup %s: %w", ip, err)
	}
	return record.Country.IsoCode, nil
}

// Close releases the underlying reader. Safe on nil.
func (r *Resolver) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}
