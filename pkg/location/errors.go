package location

import (
	"errors"
	"fmt"
	"net/http"
)

// FailureKind classifies why a provider call did not produce a result.
type FailureKind int

const (
	// FailureTimeout covers transport timeouts and connection failures.
	FailureTimeout FailureKind = iota + 1
	// FailureHTTP is a non-2xx status other than 404 and 429.
	FailureHTTP
	// FailureMalformed is a body that could not be decoded.
	FailureMalformed
	// FailureNotFound is an HTTP 404 or an explicit "no result" answer.
	FailureNotFound
	// FailureRateLimited is an HTTP 429 or a well-formed provider error payload.
	FailureRateLimited
	// FailureIncomplete is a decodable answer without usable coordinates.
	FailureIncomplete
)

func (k FailureKind) String() string {
	switch k {
	case FailureTimeout:
		return "timeout"
	case FailureHTTP:
		return "http_error"
	case FailureMalformed:
		return "malformed_response"
	case FailureNotFound:
		return "not_found"
	case FailureRateLimited:
		return "rate_limited"
	case FailureIncomplete:
		return "incomplete"
	default:
		return "unknown"
	}
}

// ProviderError is the only error type provider adapters return.
type ProviderError struct {
	Kind     FailureKind
	Provider string
	Status   int
	Err      error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Transient reports whether retrying the same provider may succeed.
func (e *ProviderError) Transient() bool {
	switch e.Kind {
	case FailureTimeout, FailureMalformed:
		return true
	case FailureHTTP:
		return e.Status >= http.StatusInternalServerError
	default:
		return false
	}
}

func newProviderError(provider string, kind FailureKind, err error) *ProviderError {
	return &ProviderError{Kind: kind, Provider: provider, Err: err}
}

// classify turns an arbitrary error into a ProviderError. Unknown errors are
// treated as transport failures so they get retried.
func classify(provider string, err error) *ProviderError {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr
	}
	return newProviderError(provider, FailureTimeout, err)
}
