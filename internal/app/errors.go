package service

import "errors"

// Error constants.
var (
	ErrNotStarted = errors.New("service not started")
	ErrFetch      = errors.New("fetch scorecards failed")
)
