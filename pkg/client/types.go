package client

import "time"

// Role mirrors the service's user roles.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Viewer identifies who is looking at a report.
type Viewer struct {
	ID   string
	Role Role
}

// IsAdmin reports whether the viewer holds the admin role.
func (v Viewer) IsAdmin() bool {
	return v.Role == RoleAdmin
}

// Report statuses and priorities as they appear on the wire.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusArchived   = "archived"
)

// Report is the wire form of a problem report.
type Report struct {
	ID           string     `json:"id"`
	Subject      string     `json:"subject"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	Priority     string     `json:"priority"`
	RequesterID  string     `json:"requesterId"`
	AssignedToID *string    `json:"assignedToId"`
	CompletedAt  *time.Time `json:"completedAt"`
	CompletedBy  *string    `json:"completedBy"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Message is the wire form of a conversation message.
type Message struct {
	ID         string    `json:"id"`
	ReportID   string    `json:"problemReportId"`
	AuthorID   string    `json:"authorId"`
	Message    string    `json:"message"`
	IsInternal bool      `json:"isInternal"`
	CreatedAt  time.Time `json:"createdAt"`
}

// User is the wire form of a user.
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	Department string    `json:"department"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Notification is the wire form of a notification row.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	RelatedID *string   `json:"relatedId"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationProblemReport is the notification type grouped into threads.
const NotificationProblemReport = "problem_report"
