package provider

import "errors"

var (
	// ErrUnavailable marks a transient failure; callers keep their last state.
	ErrUnavailable = errors.New("provider unavailable")
	// ErrUnsupportedLeague is returned for leagues the provider cannot serve.
	ErrUnsupportedLeague = errors.New("unsupported league")
)
