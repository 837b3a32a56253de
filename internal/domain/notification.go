package domain

import "time"

// NotificationType enumerates the categories shown in the notification list.
type NotificationType string

const (
	NotificationProblemReport NotificationType = "problem_report"
	NotificationWarranty      NotificationType = "warranty"
	NotificationMaintenance   NotificationType = "maintenance"
	NotificationLicense       NotificationType = "license"
	NotificationAssignment    NotificationType = "assignment"
)

// Notification is one per-recipient event row. Problem-report rows carry
// RelatedID pointing at the report; the client groups them into threads.
type Notification struct {
	ID        string
	UserID    string
	Type      NotificationType
	Message   string
	RelatedID *string
	IsRead    bool
	CreatedAt time.Time
}
