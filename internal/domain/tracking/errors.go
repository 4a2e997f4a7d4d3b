package tracking

import "errors"

var (
	// ErrLocationUnavailable is a soft miss: no sample is available yet
	ErrLocationUnavailable = errors.New("driver location unavailable")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
	ErrMissingTimestamp    = errors.New("sample timestamp is required")
	ErrInvalidPickupID     = errors.New("invalid pickup id")
)
