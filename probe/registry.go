package probe

import (
	"github.com/openrecon/openrecon/safehttp"
)

// NewRegistry builds the closed probe set. Called once at process start;
// the returned slice is never mutated afterwards. Order carries no
// meaning, the scanner keys results by probe name.
func NewRegistry(f Fetcher, r safehttp.Resolver, cfg Config) []Probe {
	return []Probe{
		NewDNS(cfg),
		NewWhois(cfg),
		NewTLSCert(cfg),
		NewHeaders(f),
		NewSecurityHeaders(f),
		NewTech(f),
		NewSubdomains(f, cfg),
		NewPorts(cfg),
		NewIPIntel(f, r),
		NewPublicFiles(f),
		NewNetworkFootprint(f, r),
	}
}
