package probe

import (
	"context"
	"sort"
)

// headerGuidance describes what each security header protects against.
type headerGuidance struct {
	Description string
	Impact      string
}

var securityHeaderCatalog = map[string]headerGuidance{
	"Strict-Transport-Security": {
		Description: "Enforces HTTPS connections.",
		Impact:      "Man-in-the-Middle (MitM) attacks, protocol downgrade attacks, cookie hijacking.",
	},
	"Content-Security-Policy": {
		Description: "Controls resources the user agent is allowed to load.",
		Impact:      "Cross-Site Scripting (XSS), data injection, clickjacking.",
	},
	"X-Frame-Options": {
		Description: "Prevents the page from being embedded in frames/iframes.",
		Impact:      "Clickjacking (UI redressing) attacks.",
	},
	"X-Content-Type-Options": {
		Description: "Prevents MIME-sniffing of response content types.",
		Impact:      "MIME sniffing attacks, drive-by downloads.",
	},
	"Referrer-Policy": {
		Description: "Controls how much referrer information is sent with requests.",
		Impact:      "Information leakage (user privacy, internal URL structure).",
	},
	"Permissions-Policy": {
		Description: "Controls which browser features are allowed.",
		Impact:      "Abuse of sensitive features (camera, microphone, geolocation).",
	},
}

// PresentHeader - A security header found on the target
type PresentHeader struct {
	Value  string `json:"value"`
	Status string `json:"status"`
}

// MissingHeader - A security header absent from the target, with guidance
type MissingHeader struct {
	Header      string `json:"header"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

// SecurityHeadersReport - Payload of the security-headers probe
type SecurityHeadersReport struct {
	PresentHeaders map[string]PresentHeader `json:"present_headers"`
	MissingHeaders []MissingHeader          `json:"missing_headers"`
	Score          int                      `json:"score"`
}

type secHeadersProbe struct {
	fetcher Fetcher
}

// NewSecurityHeaders creates the security-header posture probe.
func NewSecurityHeaders(f Fetcher) Probe {
	return &secHeadersProbe{fetcher: f}
}

func (p *secHeadersProbe) Name() string { return "security_headers" }

func (p *secHeadersProbe) Run(ctx context.Context, domain string) (any, error) {
	res, err := fetchSite(ctx, p.fetcher, domain)
	if err != nil {
		return nil, err
	}

	report := &SecurityHeadersReport{
		PresentHeaders: make(map[string]PresentHeader),
		MissingHeaders: []MissingHeader{},
	}

	for header, guidance := range securityHeaderCatalog {
		if value := res.Headers.Get(header); value != "" {
			report.PresentHeaders[header] = PresentHeader{Value: value, Status: "Present"}
		} else {
			report.MissingHeaders = append(report.MissingHeaders, MissingHeader{
				Header:      header,
				Description: guidance.Description,
				Impact:      guidance.Impact,
			})
		}
	}

	sort.Slice(report.MissingHeaders, func(i, j int) bool {
		return report.MissingHeaders[i].Header < report.MissingHeaders[j].Header
	})

	report.Score = len(report.PresentHeaders) * 100 / len(securityHeaderCatalog)
	return report, nil
}
