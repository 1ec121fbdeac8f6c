package probe

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	ierrors "github.com/openrecon/openrecon/internal/errors"
)

// CertReport - Payload of the tls probe
type CertReport struct {
	Valid              bool              `json:"valid"`
	IsExpired          bool              `json:"is_expired"`
	DaysRemaining      int               `json:"days_remaining"`
	Subject            map[string]string `json:"subject"`
	Issuer             map[string]string `json:"issuer"`
	DNSNames           []string          `json:"dns_names,omitempty"`
	SignatureAlgorithm string            `json:"signature_algorithm"`
	SerialNumber       string            `json:"serial_number"`
	NotBefore          string            `json:"valid_from"`
	NotAfter           string            `json:"valid_until"`
	TLSVersion         string            `json:"tls_version"`
	CipherSuite        string            `json:"cipher_suite"`
	SelfSigned         bool              `json:"self_signed"`
}

type tlsProbe struct {
	dialTimeout time.Duration
	port        string
}

// NewTLSCert creates the tls certificate probe.
func NewTLSCert(cfg Config) Probe {
	return &tlsProbe{
		dialTimeout: time.Duration(cfg.PortTimeout) * time.Second,
		port:        "443",
	}
}

func (p *tlsProbe) Name() string { return "tls" }

// Run performs a TLS handshake and inspects the presented leaf
// certificate. Verification is disabled on purpose: an invalid or
// self-signed certificate is a finding, not an error.
func (p *tlsProbe) Run(ctx context.Context, domain string) (any, error) {
	dialer := &net.Dialer{Timeout: p.dialTimeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", net.JoinHostPort(domain, p.port), &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         domain,
	})
	if err != nil {
		return nil, ierrors.Wrap(err, "tls handshake failed")
	}
	defer conn.Close()

	state := conn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return nil, ierrors.New("no certificate presented")
	}
	leaf := state.PeerCertificates[0]

	now := time.Now().UTC()
	daysRemaining := int(leaf.NotAfter.Sub(now).Hours() / 24)
	isExpired := now.After(leaf.NotAfter)
	notYetValid := now.Before(leaf.NotBefore)

	return &CertReport{
		Valid:         !isExpired && !notYetValid,
		IsExpired:     isExpired,
		DaysRemaining: daysRemaining,
		Subject: map[string]string{
			"common_name":  leaf.Subject.CommonName,
			"organization": joinFirst(leaf.Subject.Organization),
		},
		Issuer: map[string]string{
			"common_name":  leaf.Issuer.CommonName,
			"organization": joinFirst(leaf.Issuer.Organization),
		},
		DNSNames:           leaf.DNSNames,
		SignatureAlgorithm: leaf.SignatureAlgorithm.String(),
		SerialNumber:       leaf.SerialNumber.String(),
		NotBefore:          leaf.NotBefore.UTC().Format(time.RFC3339),
		NotAfter:           leaf.NotAfter.UTC().Format(time.RFC3339),
		TLSVersion:         tls.VersionName(state.Version),
		CipherSuite:        tls.CipherSuiteName(state.CipherSuite),
		SelfSigned:         leaf.Subject.String() == leaf.Issuer.String(),
	}, nil
}

func joinFirst(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
