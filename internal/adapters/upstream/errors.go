package upstream

import "errors"

// Sentinel kinds for upstream errors.
var (
	// ErrUnavailable covers transport failures, timeouts, 5xx answers and
	// an open circuit. Callers treat it as transient.
	ErrUnavailable = errors.New("upstream unavailable")
	// ErrRejected is a 4xx answer.
	ErrRejected = errors.New("upstream rejected request")
	// ErrDecode is a response body that is not the expected JSON.
	ErrDecode = errors.New("upstream response decode failed")
	// ErrInvalidConfig is returned by New for an unusable base URL.
	ErrInvalidConfig = errors.New("invalid upstream config")
)
