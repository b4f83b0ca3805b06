package project

import "time"

// Project is a named target for community feedback. A project accepts
// feedback from creation until it is closed; closing is one-way.
type Project struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	IsActive  bool       `json:"is_active"`
}

// Status returns the human readable lifecycle state.
func (p Project) Status() string {
	if p.IsActive {
		return "Active"
	}
	return "Closed"
}
