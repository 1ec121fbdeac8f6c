package probe

import (
	"context"
	"strings"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"

	ierrors "github.com/openrecon/openrecon/internal/errors"
)

const rawPreviewLen = 500

// WhoisReport - Payload of the whois probe
type WhoisReport struct {
	Registrar      string   `json:"registrar,omitempty"`
	CreationDate   string   `json:"creation_date,omitempty"`
	ExpirationDate string   `json:"expiration_date,omitempty"`
	AgeDays        int      `json:"age_days,omitempty"`
	NameServers    []string `json:"name_servers,omitempty"`
	Statuses       []string `json:"statuses,omitempty"`
	Flags          []string `json:"flags"`
	RawPreview     string   `json:"raw_preview,omitempty"`
	ParseNote      string   `json:"parse_note,omitempty"`
}

type whoisProbe struct {
	client *whois.Client
}

// NewWhois creates the whois probe.
func NewWhois(cfg Config) Probe {
	client := whois.NewClient()
	client.SetTimeout(time.Duration(cfg.DNSTimeout) * time.Second)
	return &whoisProbe{client: client}
}

func (p *whoisProbe) Name() string { return "whois" }

func (p *whoisProbe) Run(ctx context.Context, domain string) (any, error) {
	raw, err := p.client.Whois(domain)
	if err != nil {
		return nil, ierrors.Wrap(err, "whois lookup failed")
	}

	report := &WhoisReport{
		Flags:      []string{},
		RawPreview: preview(raw),
	}

	parsed, err := whoisparser.Parse(raw)
	if err != nil {
		// Registry replied but in a dialect the parser does not know.
		// The raw preview is still useful, so this is not a probe failure.
		report.ParseNote = "response could not be parsed structurally"
		return report, nil
	}

	if parsed.Registrar != nil {
		report.Registrar = parsed.Registrar.Name
	}
	if parsed.Domain != nil {
		report.CreationDate = parsed.Domain.CreatedDate
		report.ExpirationDate = parsed.Domain.ExpirationDate
		report.NameServers = parsed.Domain.NameServers
		report.Statuses = parsed.Domain.Status

		if parsed.Domain.CreatedDateInTime != nil {
			age := int(time.Since(*parsed.Domain.CreatedDateInTime).Hours() / 24)
			report.AgeDays = age
			if age >= 0 && age < 90 {
				report.Flags = append(report.Flags, "Recently registered (new domain)")
			}
		}
		if parsed.Domain.ExpirationDateInTime != nil && parsed.Domain.ExpirationDateInTime.Before(time.Now()) {
			report.Flags = append(report.Flags, "Domain registration expired")
		}
	}

	return report, nil
}

func preview(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	if len(raw) > rawPreviewLen {
		return raw[:rawPreviewLen] + "..."
	}
	return raw
}
