package memory

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a project or setting does not exist.
var ErrNotFound = errors.New("not found")

// ProjectSummary is one row of ListProjects.
type ProjectSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CurrentStep int       `json:"current_step"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ChatRecord is a stored chat message.
type ChatRecord struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	SessionID   string    `json:"session_id"`
	Sender      string    `json:"sender"`
	Content     string    `json:"content"`
	MessageType string    `json:"message_type"`
	CreatedAt   time.Time `json:"created_at"`
}
