package timer

import "errors"

// Domain errors returned by the controller. The HTTP layer maps these to
// status codes; persistence failures pass through wrapped and surface as 500.
var (
	ErrUnauthenticated = errors.New("no principal")
	ErrForbidden       = errors.New("not allowed to control this room's timer")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("invalid request")
)
