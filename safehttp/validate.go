package safehttp

import (
	"net/netip"

	ierrors "github.com/openrecon/openrecon/internal/errors"
)

// ErrInvalidAddress reports a literal that does not parse as an IP address.
// Distinct from a non-public classification: a malformed literal is never
// silently treated as public or private.
var ErrInvalidAddress = ierrors.New("invalid IP address literal")

// Ranges excluded beyond what the netip predicates cover. Mostly
// IANA special-purpose IPv4 blocks plus the IPv6 documentation and
// NAT64 well-known prefixes.
var reservedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),          // "this network"
	netip.MustParsePrefix("100.64.0.0/10"),      // carrier-grade NAT
	netip.MustParsePrefix("192.0.0.0/24"),       // IETF protocol assignments
	netip.MustParsePrefix("192.0.2.0/24"),       // TEST-NET-1
	netip.MustParsePrefix("198.18.0.0/15"),      // benchmarking
	netip.MustParsePrefix("198.51.100.0/24"),    // TEST-NET-2
	netip.MustParsePrefix("203.0.113.0/24"),     // TEST-NET-3
	netip.MustParsePrefix("240.0.0.0/4"),        // reserved for future use
	netip.MustParsePrefix("255.255.255.255/32"), // limited broadcast
	netip.MustParsePrefix("64:ff9b::/96"),       // NAT64
	netip.MustParsePrefix("100::/64"),           // discard-only
	netip.MustParsePrefix("2001:db8::/32"),      // documentation
	netip.MustParsePrefix("2002::/16"),          // 6to4
}

// ClassifyAddr reports whether addr is a public, globally routable address.
// Pure and total: no network access. Rejects RFC1918/RFC4193 private
// ranges, loopback, link-local, multicast, unspecified and the
// special-purpose ranges above. IPv4-mapped IPv6 addresses are classified
// by their embedded IPv4 address.
func ClassifyAddr(addr netip.Addr) bool {
	addr = addr.Unmap()

	if !addr.IsValid() || addr.IsUnspecified() {
		return false
	}
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsMulticast() {
		return false
	}
	if addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() || addr.IsInterfaceLocalMulticast() {
		return false
	}
	for _, p := range reservedPrefixes {
		if p.Contains(addr) {
			return false
		}
	}
	return true
}

// ClassifyLiteral parses an IP literal and classifies it. A malformed
// literal returns ErrInvalidAddress.
func ClassifyLiteral(literal string) (bool, error) {
	addr, err := netip.ParseAddr(literal)
	if err != nil {
		return false, ErrInvalidAddress
	}
	return ClassifyAddr(addr), nil
}
