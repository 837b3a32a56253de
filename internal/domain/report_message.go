package domain

import "time"

// ReportMessage is one entry in a problem report's conversation thread.
// Messages are append-only; createdAt defines the total order.
type ReportMessage struct {
	ID         string
	ReportID   string
	AuthorID   string
	Message    string
	IsInternal bool
	CreatedAt  time.Time
}

// VisibleTo reports whether viewer may see this message. Internal notes
// are restricted to admins and the note's own author.
func (m *ReportMessage) VisibleTo(viewer *User) bool {
	if !m.IsInternal {
		return true
	}
	if viewer == nil {
		return false
	}
	return viewer.Role == RoleAdmin || viewer.ID == m.AuthorID
}
