package project

import "errors"

var (
	// ErrProjectNotFound indicates the project doesn't exist, or for
	// Close, that it is not currently active.
	ErrProjectNotFound = errors.New("project not found")
	// ErrDuplicateName indicates a project with that name was registered before.
	ErrDuplicateName = errors.New("project name already exists")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = errors.New("invalid project input")
)
