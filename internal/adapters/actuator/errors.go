package actuator

import "errors"

var (
	// ErrAuthLost means the remote session is gone; the operator must re-authenticate.
	ErrAuthLost = errors.New("actuator authentication lost")
	// ErrRejected is a transient actuation failure.
	ErrRejected = errors.New("actuation rejected")
)
