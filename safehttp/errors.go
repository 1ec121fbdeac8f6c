package safehttp

import (
	"errors"
	"fmt"
)

// FailureReason classifies why a fetch could not produce a response.
// The reason strings are part of the probe result payloads, so they are
// stable and deliberately generic: a blocked destination is reported
// without the resolved address.
type FailureReason string

const (
	ReasonInvalidHostname  FailureReason = "invalid_hostname"
	ReasonDNSFailure       FailureReason = "dns_resolution_failed"
	ReasonBlockedAddress   FailureReason = "blocked_private_address"
	ReasonConnectionError  FailureReason = "connection_error"
	ReasonTimeout          FailureReason = "timeout"
	ReasonTooManyRedirects FailureReason = "too_many_redirects"
	ReasonResponseTooLarge FailureReason = "response_too_large"
)

// FetchError is the only error type returned by Client. The Reason is safe
// to expose to callers; Detail is for local logging only.
type FetchError struct {
	Reason FailureReason
	Detail string
}

func (e *FetchError) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

func fetchErr(reason FailureReason, format string, args ...any) *FetchError {
	return &FetchError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// ReasonOf extracts the failure reason from an error returned by Client.
// Unknown errors map to connection_error.
func ReasonOf(err error) FailureReason {
	if err == nil {
		return ""
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return ReasonConnectionError
}
