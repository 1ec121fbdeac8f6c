package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	ierrors "github.com/openrecon/openrecon/internal/errors"
	"github.com/openrecon/openrecon/safehttp"
)

const maxIntelIPs = 3

var cdnProviders = []string{
	"Cloudflare", "Akamai", "Fastly", "CloudFront", "Amazon.com", "EdgeCast",
	"Limelight", "Incapsula", "Imperva", "Sucuri", "Netlify", "Vercel",
}

var cloudProviders = []string{
	"Amazon", "Google LLC", "Microsoft Corporation", "DigitalOcean",
	"Linode", "Vultr", "Oracle", "Alibaba", "Hetzner", "OVH",
}

var sharedHostingProviders = []string{
	"GoDaddy", "Bluehost", "HostGator", "Namecheap", "DreamHost",
	"SiteGround", "InMotion", "Hostinger", "1&1", "Ionos",
}

// ipAPIResponse mirrors the ip-api.com JSON shape.
type ipAPIResponse struct {
	Status  string `json:"status"`
	Country string `json:"country"`
	City    string `json:"city"`
	ISP     string `json:"isp"`
	Org     string `json:"org"`
	AS      string `json:"as"`
	Hosting bool   `json:"hosting"`
	Proxy   bool   `json:"proxy"`
}

// IPIntel - Intelligence for one resolved address
type IPIntel struct {
	IP          string   `json:"ip"`
	Country     string   `json:"country,omitempty"`
	City        string   `json:"city,omitempty"`
	ISP         string   `json:"isp,omitempty"`
	Org         string   `json:"org,omitempty"`
	ASN         string   `json:"asn,omitempty"`
	HostingType string   `json:"hosting_type"`
	Flags       []string `json:"flags"`
}

// IPIntelReport - Payload of the ip_intelligence probe
type IPIntelReport struct {
	Addresses []IPIntel `json:"addresses"`
	Resolved  int       `json:"resolved"`
}

type ipIntelProbe struct {
	fetcher  Fetcher
	resolver safehttp.Resolver
}

// NewIPIntel creates the IP/hosting intelligence probe.
func NewIPIntel(f Fetcher, r safehttp.Resolver) Probe {
	return &ipIntelProbe{fetcher: f, resolver: r}
}

func (p *ipIntelProbe) Name() string { return "ip_intelligence" }

func (p *ipIntelProbe) Run(ctx context.Context, target string) (any, error) {
	ips, err := p.resolver.LookupHost(ctx, target)
	if err != nil {
		return nil, ierrors.Wrap(err, "target did not resolve")
	}

	report := &IPIntelReport{Addresses: []IPIntel{}, Resolved: len(ips)}
	if len(ips) > maxIntelIPs {
		ips = ips[:maxIntelIPs]
	}

	for _, ip := range ips {
		intel := p.lookupIP(ctx, ip)
		report.Addresses = append(report.Addresses, intel)
	}
	return report, nil
}

// lookupIP queries ip-api.com for one address. Failures degrade to an
// entry with Unknown hosting, never a probe failure.
func (p *ipIntelProbe) lookupIP(ctx context.Context, ip string) IPIntel {
	intel := IPIntel{IP: ip, HostingType: "Unknown", Flags: []string{}}

	url := fmt.Sprintf("http://ip-api.com/json/%s?fields=status,message,country,city,isp,org,as,proxy,hosting", ip)
	res, err := p.fetcher.Get(ctx, url, nil)
	if err != nil {
		zap.S().Debugw("ip intelligence lookup failed", "ip", ip, "error", err)
		return intel
	}

	var data ipAPIResponse
	if err := json.Unmarshal(res.Body, &data); err != nil || data.Status != "success" {
		return intel
	}

	intel.Country = data.Country
	intel.City = data.City
	intel.ISP = data.ISP
	intel.Org = data.Org
	intel.ASN = data.AS
	classifyHosting(&intel, &data)
	return intel
}

// classifyHosting buckets the address by provider fingerprints in the
// ISP/Org/AS strings.
func classifyHosting(intel *IPIntel, data *ipAPIResponse) {
	combined := strings.ToLower(data.ISP + " " + data.Org + " " + data.AS)

	for _, provider := range cdnProviders {
		if strings.Contains(combined, strings.ToLower(provider)) {
			intel.HostingType = "CDN / Edge Network"
			intel.Flags = append(intel.Flags, "CDN detected: "+provider)
			return
		}
	}
	for _, provider := range cloudProviders {
		if strings.Contains(combined, strings.ToLower(provider)) {
			intel.HostingType = "Cloud Infrastructure"
			intel.Flags = append(intel.Flags, "Cloud provider: "+provider)
			return
		}
	}
	for _, provider := range sharedHostingProviders {
		if strings.Contains(combined, strings.ToLower(provider)) {
			intel.HostingType = "Shared/Managed Hosting"
			intel.Flags = append(intel.Flags,
				"Potential shared infrastructure",
				"Sensitive data risk on shared host")
			return
		}
	}
	if data.Hosting {
		intel.HostingType = "Generic Hosting / Datacenter"
	}
	if data.Proxy {
		intel.Flags = append(intel.Flags, "Address flagged as proxy/VPN exit")
	}
}
