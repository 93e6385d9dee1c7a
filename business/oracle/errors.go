package oracle

import (
	"errors"
	"fmt"
)

// Kind classifies a scoring failure.
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindNetwork       Kind = "network"
	KindTimeout       Kind = "timeout"
	KindCancelled     Kind = "cancelled"
	KindParsing       Kind = "parsing"
)

var (
	ErrNotConfigured = errors.New("scoring oracle is not configured")
	ErrTimeout       = errors.New("scoring oracle timed out")
	ErrEmptyResponse = errors.New("scoring oracle returned an empty response")
)

// Error is the only error type ScoreCard returns.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("oracle %s error", e.Kind)
	}
	return fmt.Sprintf("oracle %s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the failure kind. Errors that did not come from this
// package are reported as network failures.
func KindOf(err error) Kind {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return KindNetwork
}

// IsRetryable reports whether a single retry is allowed for err.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindNetwork, KindTimeout:
		return true
	default:
		return false
	}
}

// IsCancelled reports whether err came from the caller abandoning the call.
func IsCancelled(err error) bool {
	return err != nil && KindOf(err) == KindCancelled
}
