package aggregate

import "errors"

var (
	// ErrInvalidArgument indicates a malformed identifier or pagination parameter.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound indicates the view's anchor record does not exist.
	ErrNotFound = errors.New("not found")
)
