package safehttp

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyAddr(t *testing.T) {
	tests := []struct {
		name    string
		literal string
		public  bool
	}{
		{"public IPv4", "8.8.8.8", true},
		{"public IPv4 cloudflare", "1.1.1.1", true},
		{"public IPv6", "2606:4700:4700::1111", true},
		{"mapped public IPv4", "::ffff:8.8.8.8", true},

		{"rfc1918 10/8", "10.0.0.1", false},
		{"rfc1918 172.16/12", "172.16.0.1", false},
		{"rfc1918 192.168/16", "192.168.1.1", false},
		{"mapped private IPv4", "::ffff:192.168.1.1", false},
		{"loopback v4", "127.0.0.1", false},
		{"loopback v4 high", "127.255.255.254", false},
		{"loopback v6", "::1", false},
		{"unspecified v4", "0.0.0.0", false},
		{"unspecified v6", "::", false},
		{"this-network", "0.255.255.255", false},
		{"link-local v4", "169.254.1.1", false},
		{"link-local v6", "fe80::1", false},
		{"unique-local v6", "fc00::1", false},
		{"carrier-grade NAT", "100.64.0.1", false},
		{"ietf protocol", "192.0.0.1", false},
		{"test-net-1", "192.0.2.1", false},
		{"test-net-2", "198.51.100.7", false},
		{"test-net-3", "203.0.113.9", false},
		{"benchmarking", "198.18.0.1", false},
		{"multicast v4", "224.0.0.1", false},
		{"multicast v6", "ff02::1", false},
		{"future-use", "240.0.0.1", false},
		{"broadcast", "255.255.255.255", false},
		{"nat64", "64:ff9b::808:808", false},
		{"discard-only", "100::1", false},
		{"documentation v6", "2001:db8::1", false},
		{"6to4", "2002::1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr := netip.MustParseAddr(tt.literal)
			assert.Equal(t, tt.public, ClassifyAddr(addr), "literal %s", tt.literal)
		})
	}
}

func TestClassifyAddr_Zero(t *testing.T) {
	assert.False(t, ClassifyAddr(netip.Addr{}))
}

func TestClassifyLiteral(t *testing.T) {
	public, err := ClassifyLiteral("8.8.8.8")
	require.NoError(t, err)
	assert.True(t, public)

	public, err = ClassifyLiteral("192.168.0.1")
	require.NoError(t, err)
	assert.False(t, public)

	_, err = ClassifyLiteral("not-an-ip")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = ClassifyLiteral("999.1.1.1")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}
