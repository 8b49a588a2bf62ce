package service

import "errors"

// Sentinel errors services wrap so handlers can map them to HTTP statuses
// with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrStaleVersion = errors.New("stale version")
)
