// Package errs defines the classified error kinds every failure path
// terminates with. A request either yields a complete PredictionResult
// or exactly one classified error; nothing is silently defaulted.
package errs

import (
	"errors"
	"fmt"
)

type Kind string

const (
	// KindConfiguration: bad or missing model/scaler artifact. Fatal,
	// never retried.
	KindConfiguration Kind = "configuration_error"
	// KindInsufficientHistory: too few valid market data rows to fill
	// the model window. Surfaced to the caller, not retried.
	KindInsufficientHistory Kind = "insufficient_history"
	// KindInference: shape or runtime mismatch inside the predictor.
	KindInference Kind = "inference_error"
	// KindTransient: temporary unavailability (warming up, upstream
	// data source down). Retried by the resilient client.
	KindTransient Kind = "transient_service_error"
	// KindNetwork: client-observed connectivity failure. Retried.
	KindNetwork Kind = "network_error"
	// KindTimeout: an attempt exceeded its deadline. Retried.
	KindTimeout Kind = "timeout"
)

// Error pairs a kind with an underlying cause so callers can act on
// the classification while logs keep the full chain.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error from a format string.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches a kind to an existing error. Already-classified errors
// keep their original kind.
func Wrap(kind Kind, err error) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the classification, or "" for unclassified errors.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// ParseKind maps a wire-level kind string back to a Kind, so the
// client can reconstruct classifications from error payloads.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindConfiguration, KindInsufficientHistory, KindInference,
		KindTransient, KindNetwork, KindTimeout:
		return Kind(s), true
	}
	return "", false
}
