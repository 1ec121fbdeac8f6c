package probe

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// wellKnownFiles is the fixed probe set. These are advertised discovery
// files, not guessed paths.
var wellKnownFiles = []string{
	"/robots.txt",
	"/sitemap.xml",
	"/.well-known/security.txt",
}

// Disallow entries that hint at sensitive surfaces.
var sensitivePathHints = []string{"admin", "backup", "private", "internal", "config", "secret", "dashboard", "login"}

// PublicFile - Presence record for one well-known file
type PublicFile struct {
	Present    bool `json:"present"`
	StatusCode int  `json:"status_code,omitempty"`
	Size       int  `json:"size,omitempty"`
}

// PublicFilesReport - Payload of the public_files probe
type PublicFilesReport struct {
	Files                map[string]PublicFile `json:"files"`
	InterestingFindings  []string              `json:"interesting_findings"`
	SecurityTxtPublished bool                  `json:"security_txt_published"`
}

type publicFilesProbe struct {
	fetcher Fetcher
}

// NewPublicFiles creates the well-known file probe.
func NewPublicFiles(f Fetcher) Probe {
	return &publicFilesProbe{fetcher: f}
}

func (p *publicFilesProbe) Name() string { return "public_files" }

func (p *publicFilesProbe) Run(ctx context.Context, domain string) (any, error) {
	report := &PublicFilesReport{
		Files:               make(map[string]PublicFile, len(wellKnownFiles)),
		InterestingFindings: []string{},
	}

	for _, path := range wellKnownFiles {
		res, err := p.fetcher.Get(ctx, "https://"+domain+path, nil)
		if err != nil {
			zap.S().Debugw("public file fetch failed", "domain", domain, "path", path, "error", err)
			report.Files[path] = PublicFile{Present: false}
			continue
		}

		present := res.StatusCode == 200
		report.Files[path] = PublicFile{
			Present:    present,
			StatusCode: res.StatusCode,
			Size:       len(res.Body),
		}
		if !present {
			continue
		}

		switch path {
		case "/robots.txt":
			report.InterestingFindings = append(report.InterestingFindings, inspectRobots(string(res.Body))...)
		case "/.well-known/security.txt":
			report.SecurityTxtPublished = true
		}
	}

	return report, nil
}

// inspectRobots flags Disallow entries that point at sensitive surfaces.
func inspectRobots(body string) []string {
	var findings []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		if !strings.HasPrefix(lower, "disallow:") {
			continue
		}
		path := strings.TrimSpace(line[len("disallow:"):])
		for _, hint := range sensitivePathHints {
			if strings.Contains(strings.ToLower(path), hint) {
				findings = append(findings, "robots.txt hides sensitive path: "+path)
				break
			}
		}
	}
	return findings
}
