package queue

import "errors"

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("recompute queue closed")
