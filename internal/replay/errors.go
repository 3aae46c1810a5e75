package replay

import "errors"

// Replay errors.
var (
	ErrNoFixture = errors.New("fixture file required")
	ErrMismatch  = errors.New("selection mismatch")
)
