// Package probe implements the passive reconnaissance operations invoked
// by the scanner. Every probe is read-only against the target: lookups,
// handshakes and fetches of public resources, never mutation.
package probe

import (
	"context"

	"github.com/openrecon/openrecon/safehttp"
)

// Probe - One named reconnaissance operation. The name is stable and used
// as the aggregate key. Run returns a JSON-serializable payload or an
// error; it must respect ctx cancellation but may otherwise fail freely,
// the invoker contains anything it raises.
type Probe interface {
	Name() string
	Run(ctx context.Context, target string) (any, error)
}

// Fetcher is the narrow view of the trust-boundary fetch client consumed
// by probes that reach caller-supplied hostnames.
type Fetcher interface {
	Get(ctx context.Context, url string, headers map[string]string) (*safehttp.Result, error)
	Head(ctx context.Context, url string, headers map[string]string) (*safehttp.Result, error)
}

// Config - Probe tuning constants, mirrored from the application config.
type Config struct {
	DNSTimeout    int // seconds, per query
	PortTimeout   int // seconds, per port
	MaxSubdomains int
}
