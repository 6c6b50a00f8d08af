package errors

import (
	"errors"
	"fmt"
)

// Common error types for the Heartbeat client
var (
	// Session errors
	ErrSessionInvalid = errors.New("session invalid")
	ErrNoToken        = errors.New("no token cached")

	// Remote API errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrBadResponse  = errors.New("malformed response")

	// Storage errors
	ErrStorageCorrupt = errors.New("stored value corrupt")

	// General errors
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
