package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	ierrors "github.com/openrecon/openrecon/internal/errors"
)

// sensitiveKeywords maps subdomain labels to what they usually expose.
var sensitiveKeywords = map[string]string{
	"dev":      "Development Environment",
	"staging":  "Staging Environment",
	"stg":      "Staging Environment",
	"test":     "Test Environment",
	"uat":      "UAT Environment",
	"admin":    "Administrative Interface",
	"api":      "API Endpoint",
	"internal": "Internal Infrastructure",
	"vpn":      "Remote Access",
	"demo":     "Demo Environment",
	"beta":     "Beta Environment",
}

// SubdomainEntry - One discovered subdomain with context flags
type SubdomainEntry struct {
	Hostname      string   `json:"hostname"`
	Flags         []string `json:"flags"`
	Context       string   `json:"context"`
	IsInteresting bool     `json:"is_interesting"`
}

// SubdomainReport - Payload of the subdomains probe
type SubdomainReport struct {
	Subdomains   []SubdomainEntry `json:"subdomains"`
	Count        int              `json:"count"`
	LimitReached bool             `json:"limit_reached"`
	Source       string           `json:"source,omitempty"`
}

type subdomainProbe struct {
	fetcher Fetcher
	limit   int
}

// NewSubdomains creates the passive subdomain enumeration probe backed by
// Certificate Transparency logs.
func NewSubdomains(f Fetcher, cfg Config) Probe {
	return &subdomainProbe{fetcher: f, limit: cfg.MaxSubdomains}
}

func (p *subdomainProbe) Name() string { return "subdomains" }

func (p *subdomainProbe) Run(ctx context.Context, domain string) (any, error) {
	names, source, err := enumerateSubdomains(ctx, p.fetcher, domain)
	if err != nil {
		return nil, err
	}

	limited := names
	if len(limited) > p.limit {
		limited = limited[:p.limit]
	}

	report := &SubdomainReport{
		Subdomains:   make([]SubdomainEntry, 0, len(limited)),
		Count:        len(limited),
		LimitReached: len(names) > p.limit,
		Source:       source,
	}

	for _, name := range limited {
		report.Subdomains = append(report.Subdomains, classifySubdomain(name, domain))
	}
	return report, nil
}

// enumerateSubdomains queries passive sources in order and returns the
// deduplicated, sorted hostnames from the first source that yields data.
// Shared with the network footprint probe.
func enumerateSubdomains(ctx context.Context, f Fetcher, domain string) ([]string, string, error) {
	sources := []struct {
		name  string
		fetch func(context.Context, Fetcher, string) ([]string, error)
	}{
		{"crt.sh", fromCrtSh},
		{"hackertarget", fromHackerTarget},
	}

	for _, source := range sources {
		names, err := source.fetch(ctx, f, domain)
		if err != nil {
			zap.S().Debugw("subdomain source failed", "source", source.name, "domain", domain, "error", err)
			continue
		}
		if len(names) > 0 {
			sort.Strings(names)
			return names, source.name, nil
		}
	}
	return nil, "", ierrors.New("no subdomain source reachable")
}

type crtShEntry struct {
	NameValue string `json:"name_value"`
}

func fromCrtSh(ctx context.Context, f Fetcher, domain string) ([]string, error) {
	url := fmt.Sprintf("https://crt.sh/?q=%%25.%s&output=json", domain)
	res, err := f.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != 200 {
		return nil, ierrors.Newf("crt.sh returned status %d", res.StatusCode)
	}

	var entries []crtShEntry
	if err := json.Unmarshal(res.Body, &entries); err != nil {
		return nil, ierrors.Wrap(err, "crt.sh JSON parse failed")
	}

	seen := make(map[string]struct{})
	var names []string
	for _, entry := range entries {
		// name_value can hold several names separated by newlines.
		for _, name := range strings.Split(entry.NameValue, "\n") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" || strings.Contains(name, "*") {
				continue
			}
			if !belongsTo(name, domain) {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names, nil
}

func fromHackerTarget(ctx context.Context, f Fetcher, domain string) ([]string, error) {
	url := fmt.Sprintf("https://api.hackertarget.com/hostsearch/?q=%s", domain)
	res, err := f.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != 200 {
		return nil, ierrors.Newf("hackertarget returned status %d", res.StatusCode)
	}

	seen := make(map[string]struct{})
	var names []string
	for _, line := range strings.Split(string(res.Body), "\n") {
		name := strings.ToLower(strings.TrimSpace(strings.SplitN(line, ",", 2)[0]))
		if name == "" || !belongsTo(name, domain) {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names, nil
}

func belongsTo(hostname, domain string) bool {
	return hostname == domain || strings.HasSuffix(hostname, "."+domain)
}

// classifySubdomain flags labels that usually indicate non-production or
// sensitive infrastructure.
func classifySubdomain(hostname, domain string) SubdomainEntry {
	entry := SubdomainEntry{
		Hostname: hostname,
		Flags:    []string{},
		Context:  "Public",
	}

	prefix := strings.TrimSuffix(hostname, "."+domain)
	for _, label := range strings.Split(prefix, ".") {
		if meaning, ok := sensitiveKeywords[label]; ok {
			entry.Flags = append(entry.Flags, meaning)
			entry.IsInteresting = true
			entry.Context = "Potentially Sensitive"
		}
	}
	return entry
}
