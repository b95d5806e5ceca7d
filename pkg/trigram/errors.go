package trigram

import "errors"

var (
	// ErrInvalidState is returned when an operation is not legal in the
	// generator's current lifecycle state. The generator is left unchanged.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidArgument is returned for malformed caller input such as a
	// non-integer seed or max token count.
	ErrInvalidArgument = errors.New("invalid argument")
)
