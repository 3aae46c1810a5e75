package repository

import "errors"

// Sentinel kinds for journal errors.
var (
	ErrInvalidLimit = errors.New("invalid journal limit")
	ErrClosed       = errors.New("journal closed")
)
