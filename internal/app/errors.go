package service

import "errors"

// Sentinel errors returned by the Service.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrStopped        = errors.New("service stopped")
	ErrTenantNotFound = errors.New("tenant not found")
	ErrTenantExists   = errors.New("tenant already exists")
	ErrEmptyTarget    = errors.New("empty switch target")
)
