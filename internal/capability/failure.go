// Package capability wraps the heavy inference capabilities (classifier,
// embedder, summarizer, NLP) behind narrow contracts, constructs them once per
// process and reports every failure with a typed reason.
package capability

import (
	"context"
	"errors"
	"fmt"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/timeout"
)

// Reason classifies why a capability call produced no value.
type Reason string

const (
	ReasonUnavailable Reason = "unavailable"
	ReasonTimeout     Reason = "timeout"
	ReasonRuntime     Reason = "runtime_error"
	ReasonMalformed   Reason = "malformed_input"
)

// ErrNotConfigured marks a capability with no constructor wired.
var ErrNotConfigured = errors.New("capability not configured")

// Failure is the typed error returned by every capability wrapper.
type Failure struct {
	Capability string
	Reason     Reason
	Err        error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Capability, f.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", f.Capability, f.Reason, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

func fail(capability string, reason Reason, err error) *Failure {
	return &Failure{Capability: capability, Reason: reason, Err: err}
}

// ReasonOf maps any error onto the failure taxonomy. Untyped errors count as
// runtime errors unless they are deadline related or come from an open
// circuit breaker.
func ReasonOf(err error) Reason {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	if errors.Is(err, timeout.ErrExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	if errors.Is(err, ErrNotConfigured) || errors.Is(err, circuitbreaker.ErrOpen) {
		return ReasonUnavailable
	}
	return ReasonRuntime
}

// invocation wraps a model-call error, keeping an existing typed reason.
func invocation(capability string, err error) error {
	var f *Failure
	if errors.As(err, &f) {
		return err
	}
	return fail(capability, ReasonOf(err), err)
}
