package rollout

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownFlag indicates a flag name outside the closed flag set.
	ErrUnknownFlag = errors.New("unknown rollout flag")

	// ErrSourceUnavailable marks an override, session or audit backend that could not be
	// reached in time. It is only ever logged; decision queries degrade instead of failing.
	ErrSourceUnavailable = errors.New("rollout source unavailable")

	// ErrNoSession indicates the session store has no identity for the current caller.
	ErrNoSession = errors.New("no session identity available")

	ErrInvalidDefaults = errors.New("invalid rollout defaults")
)

// UnknownFlagError is returned by mutations that reference a name outside the closed flag set.
type UnknownFlagError struct {
	Name string
}

func (e *UnknownFlagError) Error() string {
	return fmt.Sprintf("unknown rollout flag %q", e.Name)
}

// Is makes errors.Is(err, ErrUnknownFlag) match.
func (e *UnknownFlagError) Is(target error) bool {
	return target == ErrUnknownFlag
}

func NewUnknownFlagError(name string) *UnknownFlagError {
	return &UnknownFlagError{Name: name}
}

func IsUnknownFlagError(err error) bool {
	var e *UnknownFlagError
	return errors.As(err, &e)
}
