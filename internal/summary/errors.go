package summary

import (
	"errors"
	"fmt"
)

// ErrSummarizer matches every *Error under errors.Is.
var ErrSummarizer = errors.New("summarizer failed")

// Error is returned for every failed summary request: transport errors,
// timeouts, non-200 responses and malformed bodies. StatusCode, Type and
// Message are set when the API returned an error body.
type Error struct {
	StatusCode int
	Type       string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Type != "":
		return fmt.Sprintf("summary: HTTP %d (%s): %s", e.StatusCode, e.Type, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("summary: HTTP %d: %s", e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("summary: %s: %v", e.Message, e.Err)
	default:
		return "summary: " + e.Message
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrSummarizer.
func (e *Error) Is(target error) bool {
	return target == ErrSummarizer
}

// RateLimited reports whether the API rejected the request for quota reasons.
func (e *Error) RateLimited() bool {
	return e.StatusCode == 429 || e.Type == "rate_limit_error"
}
