package repository

import "errors"

// Sentinel kinds for board lookups.
var (
	ErrNotFound     = errors.New("participant not on the board")
	ErrInvalidLimit = errors.New("invalid board limit")
)
