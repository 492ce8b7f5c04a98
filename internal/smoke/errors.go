package smoke

import "errors"

// Error constants.
var (
	ErrUnhealthy = errors.New("service unhealthy")
	ErrMismatch  = errors.New("server answers differ from local evaluation")
	ErrNoSets    = errors.New("no subject sets")
)
