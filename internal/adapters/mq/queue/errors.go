package queue

import "errors"

// ErrFull is reported to a job's requester when the queue rejected it.
var ErrFull = errors.New("fetch queue full")
