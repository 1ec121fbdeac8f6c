package probe

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/openrecon/openrecon/safehttp"
)

const maxFootprintResolutions = 50

// FootprintSummary - Headline numbers of the network footprint
type FootprintSummary struct {
	TotalSubdomains int `json:"total_subdomains"`
	ResolvedHosts   int `json:"resolved_hosts"`
	UniqueIPs       int `json:"unique_ips"`
}

// FootprintReport - Payload of the network_footprint probe
type FootprintReport struct {
	Domain    string              `json:"domain"`
	Summary   FootprintSummary    `json:"summary"`
	IPToHosts map[string][]string `json:"ip_to_hosts"`
}

type footprintProbe struct {
	fetcher  Fetcher
	resolver safehttp.Resolver
}

// NewNetworkFootprint creates the footprint mapping probe. It reuses the
// subdomain enumeration logic internally rather than depending on another
// probe's outcome: probes stay independent at the orchestrator level.
func NewNetworkFootprint(f Fetcher, r safehttp.Resolver) Probe {
	return &footprintProbe{fetcher: f, resolver: r}
}

func (p *footprintProbe) Name() string { return "network_footprint" }

func (p *footprintProbe) Run(ctx context.Context, domain string) (any, error) {
	report := &FootprintReport{
		Domain:    domain,
		IPToHosts: make(map[string][]string),
	}

	hosts := []string{domain}
	if names, _, err := enumerateSubdomains(ctx, p.fetcher, domain); err == nil {
		report.Summary.TotalSubdomains = len(names)
		hosts = append(hosts, names...)
	} else {
		zap.S().Debugw("footprint enumeration degraded to root domain", "domain", domain, "error", err)
	}

	if len(hosts) > maxFootprintResolutions {
		hosts = hosts[:maxFootprintResolutions]
	}

	for _, host := range hosts {
		ips, err := p.resolver.LookupHost(ctx, host)
		if err != nil || len(ips) == 0 {
			continue
		}
		report.Summary.ResolvedHosts++
		// First address is enough to place the host.
		ip := ips[0]
		report.IPToHosts[ip] = append(report.IPToHosts[ip], host)
	}

	report.Summary.UniqueIPs = len(report.IPToHosts)
	for _, hostnames := range report.IPToHosts {
		sort.Strings(hostnames)
	}
	return report, nil
}
