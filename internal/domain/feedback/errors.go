package feedback

import "errors"

var (
	// ErrNoActiveProject indicates the tagged project is unknown or closed.
	ErrNoActiveProject = errors.New("no active project with that name")
	// ErrInvalidInput indicates an empty feedback message.
	ErrInvalidInput = errors.New("invalid feedback input")
)
