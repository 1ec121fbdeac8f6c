package probe

import (
	"context"

	ierrors "github.com/openrecon/openrecon/internal/errors"
	"github.com/openrecon/openrecon/safehttp"
)

var securityHeaderNames = []string{
	"Strict-Transport-Security",
	"Content-Security-Policy",
	"X-Frame-Options",
	"X-Content-Type-Options",
	"Referrer-Policy",
	"Permissions-Policy",
}

// HeadersReport - Payload of the headers probe
type HeadersReport struct {
	Headers                map[string]string `json:"headers"`
	MissingSecurityHeaders []string          `json:"missing_security_headers"`
	Server                 string            `json:"server,omitempty"`
	PoweredBy              string            `json:"powered_by,omitempty"`
	FinalURL               string            `json:"final_url"`
}

type headersProbe struct {
	fetcher Fetcher
}

// NewHeaders creates the response-header inventory probe.
func NewHeaders(f Fetcher) Probe {
	return &headersProbe{fetcher: f}
}

func (p *headersProbe) Name() string { return "headers" }

func (p *headersProbe) Run(ctx context.Context, domain string) (any, error) {
	res, err := fetchSite(ctx, p.fetcher, domain)
	if err != nil {
		return nil, err
	}

	report := &HeadersReport{
		Headers:                flattenHeaders(res),
		MissingSecurityHeaders: []string{},
		Server:                 res.Headers.Get("Server"),
		PoweredBy:              res.Headers.Get("X-Powered-By"),
		FinalURL:               res.FinalURL,
	}

	for _, name := range securityHeaderNames {
		if res.Headers.Get(name) == "" {
			report.MissingSecurityHeaders = append(report.MissingSecurityHeaders, name)
		}
	}

	return report, nil
}

// fetchSite fetches the target over HTTPS, falling back to plain HTTP when
// that fails. Every request goes through the trust-boundary client.
func fetchSite(ctx context.Context, f Fetcher, domain string) (*safehttp.Result, error) {
	res, httpsErr := f.Get(ctx, "https://"+domain, nil)
	if httpsErr == nil {
		return res, nil
	}
	res, httpErr := f.Get(ctx, "http://"+domain, nil)
	if httpErr == nil {
		return res, nil
	}
	return nil, ierrors.Wrapf(httpsErr, "target unreachable over https (http fallback: %v)", httpErr)
}

// flattenHeaders keeps the first value of each header under its canonical
// key. Probe payloads do not need the full multimap.
func flattenHeaders(res *safehttp.Result) map[string]string {
	out := make(map[string]string, len(res.Headers))
	for name, values := range res.Headers {
		if len(values) > 0 {
			out[name] = values[0]
		}
	}
	return out
}
