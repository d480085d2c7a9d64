package civiltime

import (
	"errors"
	"fmt"
)

// ErrInvalidTimestamp is returned when an input cannot be interpreted as a point in time.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// TimestampError carries the offending input alongside ErrInvalidTimestamp.
type TimestampError struct {
	Input  string
	Reason string
}

func (e *TimestampError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid timestamp %q", e.Input)
	}
	return fmt.Sprintf("invalid timestamp %q: %s", e.Input, e.Reason)
}

func (e *TimestampError) Unwrap() error {
	return ErrInvalidTimestamp
}
