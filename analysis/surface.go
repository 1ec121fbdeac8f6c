package analysis

import (
	"sort"

	"github.com/openrecon/openrecon/probe"
	"github.com/openrecon/openrecon/types"
)

// SurfaceSummary - Headline counts of the mapped attack surface
type SurfaceSummary struct {
	TotalHostnames   int `json:"total_hostnames"`
	UniqueIPs        int `json:"unique_ips"`
	OpenPorts        int `json:"open_ports"`
	SensitiveAssets  int `json:"sensitive_assets"`
	CriticalFindings int `json:"critical_findings"`
}

// SurfaceAssets - Externally visible assets grouped by kind
type SurfaceAssets struct {
	Hostnames    []string `json:"hostnames"`
	IPs          []string `json:"ips"`
	Technologies []string `json:"technologies"`
	NameServers  []string `json:"name_servers"`
}

// ExposurePoint - One externally reachable entry into the target
type ExposurePoint struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// SurfaceMap - Consolidated view over a full scan aggregate
type SurfaceMap struct {
	Target         string          `json:"target"`
	Summary        SurfaceSummary  `json:"summary"`
	Assets         SurfaceAssets   `json:"assets"`
	ExposurePoints []ExposurePoint `json:"exposure_points"`
	Risk           RiskAssessment  `json:"risk_assessment"`
}

// MapSurface consolidates probe payloads into a single surface view.
// Failed probes simply contribute nothing to the map.
func MapSurface(agg *types.ScanAggregate) SurfaceMap {
	sm := SurfaceMap{
		Target: agg.Target,
		Assets: SurfaceAssets{
			Hostnames:    []string{agg.Target},
			IPs:          []string{},
			Technologies: []string{},
			NameServers:  []string{},
		},
		ExposurePoints: []ExposurePoint{},
		Risk:           Score(agg),
	}

	if subs, ok := payloadOf[*probe.SubdomainReport](agg, "subdomains"); ok {
		for _, entry := range subs.Subdomains {
			sm.Assets.Hostnames = append(sm.Assets.Hostnames, entry.Hostname)
			if entry.IsInteresting {
				sm.Summary.SensitiveAssets++
				sm.ExposurePoints = append(sm.ExposurePoints, ExposurePoint{
					Kind:   "subdomain",
					Detail: entry.Hostname + " (" + entry.Context + ")",
				})
			}
		}
	}

	if dns, ok := payloadOf[*probe.DNSReport](agg, "dns"); ok {
		sm.Assets.IPs = append(sm.Assets.IPs, dns.Records["A"]...)
		sm.Assets.IPs = append(sm.Assets.IPs, dns.Records["AAAA"]...)
		sm.Assets.NameServers = append(sm.Assets.NameServers, dns.Records["NS"]...)
	}

	if intel, ok := payloadOf[*probe.IPIntelReport](agg, "ip_intelligence"); ok {
		for _, addr := range intel.Addresses {
			sm.Assets.IPs = append(sm.Assets.IPs, addr.IP)
		}
	}

	if fp, ok := payloadOf[*probe.FootprintReport](agg, "network_footprint"); ok {
		for ip := range fp.IPToHosts {
			sm.Assets.IPs = append(sm.Assets.IPs, ip)
		}
	}

	if tech, ok := payloadOf[*probe.TechReport](agg, "tech"); ok {
		if tech.Server != "" {
			sm.Assets.Technologies = append(sm.Assets.Technologies, tech.Server)
		}
		sm.Assets.Technologies = append(sm.Assets.Technologies, tech.Frameworks...)
	}

	if ports, ok := payloadOf[*probe.PortReport](agg, "ports"); ok {
		sm.Summary.OpenPorts = len(ports.OpenPorts)
		for _, open := range ports.OpenPorts {
			sm.ExposurePoints = append(sm.ExposurePoints, ExposurePoint{
				Kind:   "open_port",
				Detail: open.Service,
			})
		}
	}

	if files, ok := payloadOf[*probe.PublicFilesReport](agg, "public_files"); ok {
		for _, finding := range files.InterestingFindings {
			sm.ExposurePoints = append(sm.ExposurePoints, ExposurePoint{
				Kind:   "public_file",
				Detail: finding,
			})
		}
	}

	sm.Assets.Hostnames = uniqueSorted(sm.Assets.Hostnames)
	sm.Assets.IPs = uniqueSorted(sm.Assets.IPs)
	sm.Assets.Technologies = uniqueSorted(sm.Assets.Technologies)
	sm.Assets.NameServers = uniqueSorted(sm.Assets.NameServers)

	sm.Summary.TotalHostnames = len(sm.Assets.Hostnames)
	sm.Summary.UniqueIPs = len(sm.Assets.IPs)
	for _, r := range sm.Risk.Risks {
		if r.Severity == "Critical" {
			sm.Summary.CriticalFindings++
		}
	}
	return sm
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
