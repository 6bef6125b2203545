package codetime

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks caller mistakes: bad window sizes, missing
	// heartbeat fields, unknown window names.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStoreUnavailable wraps every failure of the daily aggregate store.
	ErrStoreUnavailable = errors.New("store unavailable")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
