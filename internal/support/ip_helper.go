package support

import (
	"net"
	"strings"
)

// NormalizeIPv4 returns the canonical dotted-quad form of raw, or "" when raw
// is not an IPv4 address.
func NormalizeIPv4(raw string) string {
	parsed := net.ParseIP(raw)
	if parsed == nil {
		return ""
	}
	v4 := parsed.To4()
	if v4 == nil {
		return ""
	}
	return v4.String()
}

// IPToUint32 converts an IPv4 address to its numeric value. Returns 0 for
// non-IPv4 input.
func IPToUint32(ip net.IP) uint32 {
	ip = ip.To4()
	if ip == nil {
		return 0
	}
	return uint32(ip[0])<<24 | uint32(ip[1])<<16 | uint32(ip[2])<<8 | uint32(ip[3])
}

// Uint32ToIP is the inverse of IPToUint32.
func Uint32ToIP(v uint32) net.IP {
	return net.IPv4(byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// ReverseOctets rewrites a.b.c.d as d.c.b.a, the query form DNS blocklists
// expect. Returns "" when the input is not IPv4.
func ReverseOctets(ip string) string {
	normalized := NormalizeIPv4(ip)
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, ".")
	return parts[3] + "." + parts[2] + "." + parts[1] + "." + parts[0]
}
