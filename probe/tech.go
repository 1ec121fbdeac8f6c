package probe

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

var versionPattern = regexp.MustCompile(`[/\s](\d+\.\d+(?:\.\d+)?)`)

// legacyThresholds flags versions older than the given major.minor.
var legacyThresholds = map[string][2]int{
	"php":    {8, 0},
	"apache": {2, 4},
	"nginx":  {1, 18},
	"iis":    {10, 0},
	"python": {3, 8},
}

// Session cookie names that betray the backend stack.
var cookieHints = map[string]string{
	"PHPSESSID":         "PHP",
	"JSESSIONID":        "Java",
	"ASP.NET_SessionId": "ASP.NET",
	"csrftoken":         "Django (Python)",
	"rack.session":      "Ruby on Rails",
	"laravel_session":   "Laravel (PHP)",
}

// TechReport - Payload of the tech fingerprint probe
type TechReport struct {
	Server     string   `json:"server,omitempty"`
	Frameworks []string `json:"frameworks"`
	Proxies    []string `json:"proxies"`
	OSHint     string   `json:"os_hint"`
	Flags      []string `json:"flags"`
}

type techProbe struct {
	fetcher Fetcher
}

// NewTech creates the technology fingerprint probe. Passive only: it
// inspects headers, cookies and page markup of the landing page.
func NewTech(f Fetcher) Probe {
	return &techProbe{fetcher: f}
}

func (p *techProbe) Name() string { return "tech" }

func (p *techProbe) Run(ctx context.Context, domain string) (any, error) {
	res, err := fetchSite(ctx, p.fetcher, domain)
	if err != nil {
		return nil, err
	}

	report := &TechReport{
		Frameworks: []string{},
		Proxies:    []string{},
		OSHint:     "Unknown",
		Flags:      []string{},
	}

	p.inspectServer(res.Headers.Get("Server"), report)
	p.inspectPoweredBy(res.Headers.Get("X-Powered-By"), report)

	if gen := res.Headers.Get("X-Generator"); gen != "" {
		report.Frameworks = append(report.Frameworks, gen)
	}
	if res.Headers.Get("X-Aspnet-Version") != "" {
		report.Frameworks = append(report.Frameworks, "ASP.NET")
		report.OSHint = "Windows Server"
	}

	for _, cookie := range res.Headers.Values("Set-Cookie") {
		for hint, framework := range cookieHints {
			if strings.Contains(cookie, hint) {
				report.Frameworks = append(report.Frameworks, framework)
				if framework == "ASP.NET" {
					report.OSHint = "Windows Server"
				}
			}
		}
	}

	// Proxy / CDN layer
	if via := res.Headers.Get("Via"); via != "" {
		report.Proxies = append(report.Proxies, via)
	}
	if xc := res.Headers.Get("X-Cache"); xc != "" {
		report.Proxies = append(report.Proxies, xc)
	}
	if res.Headers.Get("Cf-Ray") != "" || strings.Contains(strings.ToLower(report.Server), "cloudflare") {
		report.Proxies = append(report.Proxies, "Cloudflare")
	}

	p.inspectMarkup(res.Body, report)

	report.Frameworks = dedupe(report.Frameworks)
	report.Proxies = dedupe(report.Proxies)
	return report, nil
}

func (p *techProbe) inspectServer(server string, report *TechReport) {
	if server == "" {
		return
	}
	report.Server = server
	lower := strings.ToLower(server)

	switch {
	case strings.Contains(lower, "ubuntu"):
		report.OSHint = "Ubuntu Linux"
	case strings.Contains(lower, "debian"):
		report.OSHint = "Debian Linux"
	case strings.Contains(lower, "centos"):
		report.OSHint = "CentOS Linux"
	case strings.Contains(lower, "win32"), strings.Contains(lower, "microsoft-iis"):
		report.OSHint = "Windows Server"
	}

	version := parseVersion(server)
	if version == "" {
		return
	}
	for _, name := range []string{"apache", "nginx", "iis"} {
		if strings.Contains(lower, name) && isLegacyVersion(name, version) {
			report.Flags = append(report.Flags, fmt.Sprintf("Outdated %s detected (v%s)", name, version))
		}
	}
}

func (p *techProbe) inspectPoweredBy(poweredBy string, report *TechReport) {
	if poweredBy == "" {
		return
	}
	report.Frameworks = append(report.Frameworks, poweredBy)
	lower := strings.ToLower(poweredBy)

	if strings.Contains(lower, "php") {
		if v := parseVersion(poweredBy); v != "" && isLegacyVersion("php", v) {
			report.Flags = append(report.Flags, fmt.Sprintf("Outdated PHP version (v%s)", v))
		}
	}
	if strings.Contains(lower, "asp.net") {
		report.Frameworks = append(report.Frameworks, "ASP.NET")
		report.OSHint = "Windows Server"
	}
}

// inspectMarkup looks at the landing page HTML for generator tags and
// well-known asset path hints.
func (p *techProbe) inspectMarkup(body []byte, report *TechReport) {
	if len(body) == 0 {
		return
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		zap.S().Debugw("markup parse failed", "error", err)
		return
	}

	doc.Find(`meta[name="generator"]`).Each(func(_ int, s *goquery.Selection) {
		if content, ok := s.Attr("content"); ok && content != "" {
			report.Frameworks = append(report.Frameworks, content)
		}
	})

	html := strings.ToLower(string(body))
	if strings.Contains(html, "wp-content") || strings.Contains(html, "wp-includes") {
		report.Frameworks = append(report.Frameworks, "WordPress")
	}
	if strings.Contains(html, "/_next/") {
		report.Frameworks = append(report.Frameworks, "Next.js")
	}
}

// parseVersion extracts a version like "1.2.3" from a banner.
func parseVersion(banner string) string {
	if m := versionPattern.FindStringSubmatch(banner); len(m) == 2 {
		return m[1]
	}
	return ""
}

// isLegacyVersion reports whether the version is below the threshold for
// the named technology.
func isLegacyVersion(tech, version string) bool {
	threshold, ok := legacyThresholds[strings.ToLower(tech)]
	if !ok {
		return false
	}

	parts := strings.Split(version, ".")
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return false
	}
	minor := 0
	if len(parts) > 1 {
		if m, err := strconv.Atoi(parts[1]); err == nil {
			minor = m
		}
	}

	if major != threshold[0] {
		return major < threshold[0]
	}
	return minor < threshold[1]
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
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
