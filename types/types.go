package types

import (
	"time"
)

// OutcomeStatus - Terminal status of a single probe invocation
type OutcomeStatus string

const (
	StatusOK     OutcomeStatus = "ok"
	StatusFailed OutcomeStatus = "failed"
)

// FailKind - Why a probe invocation failed
type FailKind string

const (
	FailTimeout   FailKind = "timeout"
	FailExecution FailKind = "execution_error"
)

// ProbeOutcome - Result of one probe invocation. Either Payload is set
// (Status == ok) or Kind/Error describe the failure (Status == failed).
// A failure never carries a payload.
type ProbeOutcome struct {
	Status  OutcomeStatus `json:"status"`
	Payload any           `json:"payload,omitempty"`
	Kind    FailKind      `json:"kind,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// OK builds a successful outcome.
func OK(payload any) ProbeOutcome {
	return ProbeOutcome{Status: StatusOK, Payload: payload}
}

// Failed builds a failure outcome with a human-readable summary.
func Failed(kind FailKind, message string) ProbeOutcome {
	return ProbeOutcome{Status: StatusFailed, Kind: kind, Error: message}
}

// ScanAggregate - Combined result of all probes for one target, keyed by
// probe name. Complete by construction: one entry per registered probe,
// even when every probe failed.
type ScanAggregate struct {
	ScanID    string                  `json:"scan_id"`
	Target    string                  `json:"target"`
	StartedAt time.Time               `json:"started_at"`
	Duration  float64                 `json:"duration_s"`
	Results   map[string]ProbeOutcome `json:"results"`
}
