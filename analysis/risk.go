// Package analysis derives risk assessments from a completed scan
// aggregate. Pure read-only processing: no network calls, and every
// aggregate entry may be a failure marker rather than a payload.
package analysis

import (
	"fmt"

	"github.com/openrecon/openrecon/probe"
	"github.com/openrecon/openrecon/types"
)

// Deduction weights per severity.
const (
	scoreCritical = 30
	scoreHigh     = 20
	scoreMedium   = 10
	scoreLow      = 5
)

// Risk - One scored finding
type Risk struct {
	Severity  string `json:"severity"`
	Finding   string `json:"finding"`
	Deduction int    `json:"deduction"`
}

// RiskAssessment - Deterministic 0-100 score with letter grade
type RiskAssessment struct {
	Score int    `json:"score"`
	Grade string `json:"grade"`
	Risks []Risk `json:"risks"`
}

// payloadOf extracts a probe payload of the expected type from the
// aggregate. Failed or missing entries yield ok == false.
func payloadOf[T any](agg *types.ScanAggregate, name string) (T, bool) {
	var zero T
	outcome, ok := agg.Results[name]
	if !ok || outcome.Status != types.StatusOK {
		return zero, false
	}
	v, ok := outcome.Payload.(T)
	return v, ok
}

// Score computes the rule-based risk assessment for one aggregate.
func Score(agg *types.ScanAggregate) RiskAssessment {
	score := 100
	risks := []Risk{}

	deduct := func(severity string, amount int, finding string) {
		score -= amount
		risks = append(risks, Risk{Severity: severity, Finding: finding, Deduction: amount})
	}

	if sec, ok := payloadOf[*probe.SecurityHeadersReport](agg, "security_headers"); ok {
		if missing := len(sec.MissingHeaders); missing > 0 {
			deduction := missing * scoreLow
			if deduction > 50 {
				deduction = 50
			}
			deduct("Medium", deduction, fmt.Sprintf("Missing %d critical security headers", missing))
		}
	}

	if files, ok := payloadOf[*probe.PublicFilesReport](agg, "public_files"); ok {
		if n := len(files.InterestingFindings); n > 0 {
			deduct("Low", scoreLow*n, fmt.Sprintf("Sensitive paths referenced in public files (%d items)", n))
		}
	}

	if cert, ok := payloadOf[*probe.CertReport](agg, "tls"); ok {
		switch {
		case cert.IsExpired:
			deduct("Critical", scoreCritical, "TLS certificate expired")
		case !cert.Valid:
			deduct("Medium", scoreMedium, "TLS configuration invalid")
		}
	}

	if dns, ok := payloadOf[*probe.DNSReport](agg, "dns"); ok {
		if !dns.EmailSecurity.DMARC.Present {
			deduct("Medium", scoreMedium, "No DMARC policy published")
		}
		if dns.EmailSecurity.SPF.Status == "Over-permissive (+all)" {
			deduct("High", scoreHigh, "Over-permissive SPF policy")
		}
	}

	if ports, ok := payloadOf[*probe.PortReport](agg, "ports"); ok {
		for _, open := range ports.OpenPorts {
			if open.Port == 3306 || open.Port == 3389 {
				deduct("High", scoreHigh, fmt.Sprintf("%s exposed on port %d", open.Service, open.Port))
			}
		}
	}

	if score < 0 {
		score = 0
	}
	return RiskAssessment{Score: score, Grade: gradeFor(score), Risks: risks}
}

func gradeFor(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}
