package assign

import "errors"

// Sentinel kinds for assignment errors.
var (
	// ErrFetch means the roster or the divisions could not be loaded.
	ErrFetch = errors.New("assignment inputs unavailable")
	// ErrSubmit means the bulk request itself failed. Per-participant
	// rejections are not errors; they are listed in the Report.
	ErrSubmit = errors.New("bulk assignment submission failed")
)
