// Package geo maps client network addresses to coarse location labels.
// Resolution never fails: any problem degrades to UnknownLocation.
package geo

import (
	"net"
	"net/netip"
	"strings"
)

const (
	UnknownLocation = "Unknown"

	// SentinelAddress stands in for loopback and unspecified addresses so
	// that local deployments still get a non-empty location.
	SentinelAddress = "8.8.8.8"
)

// NormalizeAddress reduces a raw source address (possibly with a port,
// brackets, an IPv6 zone or an IPv4-mapped prefix) to a bare IP string.
// Empty, loopback and unspecified addresses map to SentinelAddress.
// Private and link-local addresses are kept: they are distinct sources.
// Unparseable input is returned trimmed.
func NormalizeAddress(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return SentinelAddress
	}

	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	if i := strings.IndexByte(s, '%'); i >= 0 {
		s = s[:i]
	}

	addr, err := netip.ParseAddr(s)
	if err != nil {
		return s
	}
	addr = addr.Unmap()

	if addr.IsLoopback() || addr.IsUnspecified() {
		return SentinelAddress
	}
	return addr.String()
}

// lookupAddress is the address handed to a geolocation upstream. Private
// and link-local addresses have no public location and use the sentinel.
func lookupAddress(ip string) string {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return ip
	}
	if addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() {
		return SentinelAddress
	}
	return ip
}
