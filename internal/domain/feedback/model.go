package feedback

import (
	"strconv"
	"time"
)

// Feedback is a single immutable submission attached to a project.
type Feedback struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id"`
	AuthorID    string    `json:"author_id"`
	AuthorLabel string    `json:"author_label,omitempty"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

// Author identifies the sender of a chat message.
type Author struct {
	ID        string
	Username  string
	FirstName string
}

// Label returns the best-effort display name: handle, else display
// name, else the identity itself.
func (a Author) Label() string {
	if a.Username != "" {
		return a.Username
	}
	if a.FirstName != "" {
		return a.FirstName
	}
	return a.ID
}

// AuthorFromInt builds an Author from a numeric platform identity.
func AuthorFromInt(id int64, username, firstName string) Author {
	return Author{
		ID:        strconv.FormatInt(id, 10),
		Username:  username,
		FirstName: firstName,
	}
}
