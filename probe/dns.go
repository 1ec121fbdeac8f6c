package probe

import (
	"context"
	"fmt"
	"strings"
	"time"

	mdns "github.com/miekg/dns"
	"go.uber.org/zap"
)

// Public resolvers are queried directly to avoid local caching quirks.
var dnsServers = []string{"8.8.8.8:53", "1.1.1.1:53"}

const maxRecordsPerType = 10

// SPFInfo - SPF posture extracted from root TXT records
type SPFInfo struct {
	Present bool   `json:"present"`
	Record  string `json:"record,omitempty"`
	Status  string `json:"status"`
}

// DMARCInfo - DMARC posture from _dmarc TXT
type DMARCInfo struct {
	Present bool   `json:"present"`
	Record  string `json:"record,omitempty"`
	Policy  string `json:"policy"`
}

// DKIMInfo - Weak passive DKIM signal; selectors are never enumerated
type DKIMInfo struct {
	DomainKeyExists bool   `json:"_domainkey_exists"`
	Note            string `json:"note"`
}

// EmailSecurity - Combined email authentication posture
type EmailSecurity struct {
	SPF   SPFInfo   `json:"spf"`
	DMARC DMARCInfo `json:"dmarc"`
	DKIM  DKIMInfo  `json:"dkim_dns_check"`
}

// DNSReport - Payload of the dns probe
type DNSReport struct {
	Records       map[string][]string `json:"records"`
	EmailSecurity EmailSecurity       `json:"email_security"`
	Flags         []string            `json:"flags"`
}

// dnsProbe queries standard record types against public resolvers and
// derives the email security posture.
type dnsProbe struct {
	client  *mdns.Client
	servers []string
}

// NewDNS creates the dns probe.
func NewDNS(cfg Config) Probe {
	return &dnsProbe{
		client:  &mdns.Client{Timeout: time.Duration(cfg.DNSTimeout) * time.Second},
		servers: dnsServers,
	}
}

func (p *dnsProbe) Name() string { return "dns" }

func (p *dnsProbe) Run(ctx context.Context, domain string) (any, error) {
	recordTypes := []struct {
		name  string
		qtype uint16
	}{
		{"A", mdns.TypeA},
		{"AAAA", mdns.TypeAAAA},
		{"MX", mdns.TypeMX},
		{"NS", mdns.TypeNS},
		{"TXT", mdns.TypeTXT},
		{"SOA", mdns.TypeSOA},
	}

	report := &DNSReport{
		Records: make(map[string][]string, len(recordTypes)),
		Flags:   []string{},
	}

	for _, rt := range recordTypes {
		report.Records[rt.name] = p.query(ctx, domain, rt.qtype)
	}

	dmarcRecords := p.query(ctx, "_dmarc."+domain, mdns.TypeTXT)
	domainKeyRecords := p.query(ctx, "_domainkey."+domain, mdns.TypeTXT)

	report.EmailSecurity = EmailSecurity{
		SPF:   analyzeSPF(report.Records["TXT"], &report.Flags),
		DMARC: analyzeDMARC(dmarcRecords, &report.Flags),
		DKIM: DKIMInfo{
			DomainKeyExists: len(domainKeyRecords) > 0,
			Note:            "Selectors not enumerated passively",
		},
	}

	return report, nil
}

// query performs one typed lookup, trying each resolver in order. Failures
// yield an empty record set, never an error: missing records are a normal
// finding.
func (p *dnsProbe) query(ctx context.Context, name string, qtype uint16) []string {
	msg := new(mdns.Msg)
	msg.SetQuestion(mdns.Fqdn(name), qtype)
	msg.RecursionDesired = true

	for _, server := range p.servers {
		in, _, err := p.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			zap.S().Debugw("dns exchange failed", "name", name, "server", server, "error", err)
			continue
		}
		if in.Rcode != mdns.RcodeSuccess {
			return []string{}
		}

		records := make([]string, 0, len(in.Answer))
		for _, rr := range in.Answer {
			text := renderRR(rr)
			if text == "" {
				continue
			}
			records = append(records, text)
			if len(records) >= maxRecordsPerType {
				break
			}
		}
		return records
	}
	return []string{}
}

func renderRR(rr mdns.RR) string {
	switch v := rr.(type) {
	case *mdns.A:
		return v.A.String()
	case *mdns.AAAA:
		return v.AAAA.String()
	case *mdns.MX:
		return fmt.Sprintf("%d %s", v.Preference, strings.TrimSuffix(v.Mx, "."))
	case *mdns.NS:
		return strings.TrimSuffix(v.Ns, ".")
	case *mdns.TXT:
		return strings.Join(v.Txt, "")
	case *mdns.SOA:
		return fmt.Sprintf("%s %s %d", strings.TrimSuffix(v.Ns, "."), strings.TrimSuffix(v.Mbox, "."), v.Serial)
	case *mdns.CNAME:
		return strings.TrimSuffix(v.Target, ".")
	}
	return ""
}

func analyzeSPF(rootTXT []string, flags *[]string) SPFInfo {
	info := SPFInfo{Status: "Missing"}
	for _, r := range rootTXT {
		if strings.Contains(r, "v=spf1") {
			info.Present = true
			info.Record = r
			break
		}
	}
	if !info.Present {
		return info
	}

	switch {
	case strings.Contains(info.Record, "+all"):
		info.Status = "Over-permissive (+all)"
		*flags = append(*flags, "Over-permissive SPF policy (+all)")
	case strings.Contains(info.Record, "-all"):
		info.Status = "Strict (-all)"
	case strings.Contains(info.Record, "~all"):
		info.Status = "SoftFail (~all)"
	case strings.Contains(info.Record, "?all"):
		info.Status = "Neutral (?all)"
	default:
		info.Status = "Unknown/Loose"
	}
	return info
}

func analyzeDMARC(dmarcTXT []string, flags *[]string) DMARCInfo {
	info := DMARCInfo{Policy: "None"}
	for _, r := range dmarcTXT {
		if strings.Contains(r, "v=DMARC1") {
			info.Present = true
			info.Record = r
			break
		}
	}
	if !info.Present {
		*flags = append(*flags, "Missing DMARC record")
		return info
	}

	for _, part := range strings.Split(info.Record, ";") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "p=") {
			info.Policy = strings.TrimPrefix(part, "p=")
			break
		}
	}
	return info
}
