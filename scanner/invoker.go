package scanner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/openrecon/openrecon/probe"
	"github.com/openrecon/openrecon/types"
)

// Invoke runs one probe under a fixed deadline and converts every failure
// mode into a structured outcome. This is the blast-radius boundary: a
// hanging or panicking probe can never abort the scan or mutate anything
// after its outcome is finalized.
func Invoke(ctx context.Context, p probe.Probe, target string, deadline time.Duration) types.ProbeOutcome {
	probeCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	type result struct {
		payload any
		err     error
	}
	// Buffered so a completion after the deadline parks here and is
	// discarded instead of leaking the goroutine.
	done := make(chan result, 1)

	started := time.Now()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("probe panicked: %v", r)}
			}
		}()
		payload, err := p.Run(probeCtx, target)
		done <- result{payload: payload, err: err}
	}()

	select {
	case <-probeCtx.Done():
		zap.S().Warnw("probe timed out", "probe", p.Name(), "target", target, "deadline", deadline)
		return types.Failed(types.FailTimeout, "probe timed out")
	case res := <-done:
		if res.err != nil {
			zap.S().Warnw("probe failed",
				"probe", p.Name(),
				"target", target,
				"elapsed", time.Since(started),
				"error", res.err)
			return types.Failed(types.FailExecution, res.err.Error())
		}
		return types.OK(res.payload)
	}
}
