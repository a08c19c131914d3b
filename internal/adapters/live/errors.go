package live

import "errors"

// Sentinel kinds for live channel errors.
var (
	// ErrMalformed is a push frame that is not a JSON notification. The
	// frame is skipped and the connection kept.
	ErrMalformed = errors.New("malformed notification frame")
	// ErrDial wraps push connection failures.
	ErrDial = errors.New("push dial failed")
)
