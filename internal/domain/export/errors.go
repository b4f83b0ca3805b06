package export

import "errors"

// ErrNoFeedback indicates the project exists but nothing was collected yet.
var ErrNoFeedback = errors.New("no feedback collected")
