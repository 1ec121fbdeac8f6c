package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrecon/openrecon/probe"
	"github.com/openrecon/openrecon/types"
)

func aggregateWith(results map[string]types.ProbeOutcome) *types.ScanAggregate {
	return &types.ScanAggregate{
		ScanID:  "test-scan",
		Target:  "example.com",
		Results: results,
	}
}

func TestScore_CleanTarget(t *testing.T) {
	agg := aggregateWith(map[string]types.ProbeOutcome{
		"security_headers": types.OK(&probe.SecurityHeadersReport{Score: 100}),
		"tls":              types.OK(&probe.CertReport{Valid: true}),
		"dns": types.OK(&probe.DNSReport{
			EmailSecurity: probe.EmailSecurity{
				SPF:   probe.SPFInfo{Present: true, Status: "Strict (-all)"},
				DMARC: probe.DMARCInfo{Present: true, Policy: "reject"},
			},
		}),
		"ports": types.OK(&probe.PortReport{OpenPorts: []probe.OpenPort{
			{Port: 443, Service: "HTTPS"},
		}}),
	})

	assessment := Score(agg)
	assert.Equal(t, 100, assessment.Score)
	assert.Equal(t, "A", assessment.Grade)
	assert.Empty(t, assessment.Risks)
}

func TestScore_Deductions(t *testing.T) {
	agg := aggregateWith(map[string]types.ProbeOutcome{
		"security_headers": types.OK(&probe.SecurityHeadersReport{
			MissingHeaders: []probe.MissingHeader{
				{Header: "Content-Security-Policy"},
				{Header: "Strict-Transport-Security"},
			},
		}),
		"tls": types.OK(&probe.CertReport{Valid: false, IsExpired: true}),
		"dns": types.OK(&probe.DNSReport{
			EmailSecurity: probe.EmailSecurity{
				SPF:   probe.SPFInfo{Present: true, Status: "Strict (-all)"},
				DMARC: probe.DMARCInfo{Present: false},
			},
		}),
	})

	assessment := Score(agg)
	// 100 - 10 (2 missing headers) - 30 (expired cert) - 10 (no DMARC) = 50
	assert.Equal(t, 50, assessment.Score)
	assert.Equal(t, "F", assessment.Grade)
	require.Len(t, assessment.Risks, 3)

	var critical int
	for _, r := range assessment.Risks {
		if r.Severity == "Critical" {
			critical++
		}
	}
	assert.Equal(t, 1, critical)
}

func TestScore_HeaderDeductionIsCapped(t *testing.T) {
	missing := make([]probe.MissingHeader, 20)
	agg := aggregateWith(map[string]types.ProbeOutcome{
		"security_headers": types.OK(&probe.SecurityHeadersReport{MissingHeaders: missing}),
	})

	assessment := Score(agg)
	require.Len(t, assessment.Risks, 1)
	assert.Equal(t, 50, assessment.Risks[0].Deduction)
}

func TestScore_ExposedDatabasePort(t *testing.T) {
	agg := aggregateWith(map[string]types.ProbeOutcome{
		"ports": types.OK(&probe.PortReport{OpenPorts: []probe.OpenPort{
			{Port: 3306, Service: "MySQL"},
			{Port: 80, Service: "HTTP"},
		}}),
	})

	assessment := Score(agg)
	require.Len(t, assessment.Risks, 1)
	assert.Equal(t, "High", assessment.Risks[0].Severity)
	assert.Contains(t, assessment.Risks[0].Finding, "MySQL")
}

func TestScore_NeverBelowZero(t *testing.T) {
	agg := aggregateWith(map[string]types.ProbeOutcome{
		"security_headers": types.OK(&probe.SecurityHeadersReport{
			MissingHeaders: make([]probe.MissingHeader, 20),
		}),
		"tls": types.OK(&probe.CertReport{IsExpired: true}),
		"dns": types.OK(&probe.DNSReport{
			EmailSecurity: probe.EmailSecurity{
				SPF: probe.SPFInfo{Present: true, Status: "Over-permissive (+all)"},
			},
		}),
		"ports": types.OK(&probe.PortReport{OpenPorts: []probe.OpenPort{
			{Port: 3306, Service: "MySQL"},
			{Port: 3389, Service: "RDP"},
		}}),
		"public_files": types.OK(&probe.PublicFilesReport{
			InterestingFindings: []string{"a", "b", "c"},
		}),
	})

	assessment := Score(agg)
	assert.GreaterOrEqual(t, assessment.Score, 0)
	assert.Equal(t, 0, assessment.Score)
	assert.Equal(t, "F", assessment.Grade)
}

func TestScore_ToleratesFailedProbes(t *testing.T) {
	agg := aggregateWith(map[string]types.ProbeOutcome{
		"security_headers": types.Failed(types.FailTimeout, "probe timed out"),
		"tls":              types.Failed(types.FailExecution, "handshake failed"),
		"dns":              types.Failed(types.FailExecution, "no answer"),
	})

	assessment := Score(agg)
	assert.Equal(t, 100, assessment.Score)
	assert.Empty(t, assessment.Risks)
}

func TestGradeFor(t *testing.T) {
	tests := []struct {
		score int
		grade string
	}{
		{100, "A"}, {90, "A"}, {89, "B"}, {80, "B"},
		{79, "C"}, {70, "C"}, {69, "D"}, {60, "D"}, {59, "F"}, {0, "F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.grade, gradeFor(tt.score), "score %d", tt.score)
	}
}
