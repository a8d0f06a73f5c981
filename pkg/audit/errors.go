package audit

import "errors"

var (
	// ErrSinkUnavailable indicates the storage backend failed or timed out
	ErrSinkUnavailable = errors.New("audit sink is unavailable")

	// ErrEventValidation indicates event validation failed
	ErrEventValidation = errors.New("event validation failed")
)
