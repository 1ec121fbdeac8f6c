// Package scanner fans a validated target out to the registered probe set
// and assembles the aggregate report. The aggregate is complete by
// construction: one outcome per registered probe, even when every probe
// fails.
package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openrecon/openrecon/probe"
	"github.com/openrecon/openrecon/types"
)

// Scanner holds the probe registry, built once at process start and never
// mutated at runtime.
type Scanner struct {
	registry []probe.Probe
	deadline time.Duration
}

// New creates a scanner over the given registry with a per-probe deadline.
func New(registry []probe.Probe, probeDeadline time.Duration) *Scanner {
	return &Scanner{registry: registry, deadline: probeDeadline}
}

// ProbeNames lists the registered probe names.
func (s *Scanner) ProbeNames() []string {
	names := make([]string, 0, len(s.registry))
	for _, p := range s.registry {
		names = append(names, p.Name())
	}
	return names
}

// Run executes every registered probe against the target concurrently,
// each under its own independent deadline, and returns the complete
// aggregate. Run itself never fails: probe failures become entries.
func (s *Scanner) Run(ctx context.Context, target string) *types.ScanAggregate {
	started := time.Now().UTC()
	agg := &types.ScanAggregate{
		ScanID:    uuid.NewString(),
		Target:    target,
		StartedAt: started,
		Results:   make(map[string]types.ProbeOutcome, len(s.registry)),
	}

	zap.S().Infow("starting scan", "scan_id", agg.ScanID, "target", target, "probes", len(s.registry))

	wg := &sync.WaitGroup{}
	mu := &sync.Mutex{}

	for _, p := range s.registry {
		wg.Add(1)
		go func(p probe.Probe) {
			defer wg.Done()
			outcome := Invoke(ctx, p, target, s.deadline)

			// Each probe writes its own key exactly once; the mutex only
			// guards the map structure.
			mu.Lock()
			agg.Results[p.Name()] = outcome
			mu.Unlock()
		}(p)
	}
	wg.Wait()

	agg.Duration = time.Since(started).Seconds()
	zap.S().Infow("scan complete",
		"scan_id", agg.ScanID,
		"target", target,
		"duration_s", agg.Duration,
		"failed", countFailed(agg))
	return agg
}

// RunOne executes a single named probe. The second return value reports
// whether the probe exists.
func (s *Scanner) RunOne(ctx context.Context, name, target string) (types.ProbeOutcome, bool) {
	for _, p := range s.registry {
		if p.Name() == name {
			return Invoke(ctx, p, target, s.deadline), true
		}
	}
	return types.ProbeOutcome{}, false
}

func countFailed(agg *types.ScanAggregate) int {
	n := 0
	for _, outcome := range agg.Results {
		if outcome.Status == types.StatusFailed {
			n++
		}
	}
	return n
}
