package domain

import "time"

// ReportStatus enumerates lifecycle states for problem reports.
type ReportStatus string

const (
	ReportStatusOpen       ReportStatus = "open"
	ReportStatusInProgress ReportStatus = "in_progress"
	ReportStatusCompleted  ReportStatus = "completed"
	ReportStatusArchived   ReportStatus = "archived"
)

// ReportPriority enumerates requester-declared urgency.
type ReportPriority string

const (
	ReportPriorityLow    ReportPriority = "low"
	ReportPriorityMedium ReportPriority = "medium"
	ReportPriorityHigh   ReportPriority = "high"
	ReportPriorityUrgent ReportPriority = "urgent"
)

// ProblemReport is the aggregate for a submitted problem ticket.
type ProblemReport struct {
	ID           string
	Subject      string
	Description  string
	Status       ReportStatus
	Priority     ReportPriority
	RequesterID  string
	AssignedToID *string
	CompletedAt  *time.Time
	CompletedBy  *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Archived reports are terminal: no mutations, no new messages.
func (r *ProblemReport) IsArchived() bool {
	return r.Status == ReportStatusArchived
}

// forwardTransitions holds the only status moves the service accepts.
// Archiving is not reachable through a plain status update; it has its
// own operation gated on ReportStatusCompleted.
var forwardTransitions = map[ReportStatus][]ReportStatus{
	ReportStatusOpen:       {ReportStatusInProgress, ReportStatusCompleted},
	ReportStatusInProgress: {ReportStatusCompleted},
	ReportStatusCompleted:  {},
	ReportStatusArchived:   {},
}

// CanTransition reports whether a status update from current to next is a
// forward move in the report lifecycle.
func CanTransition(current, next ReportStatus) bool {
	for _, candidate := range forwardTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a known report status.
func ValidStatus(s ReportStatus) bool {
	switch s {
	case ReportStatusOpen, ReportStatusInProgress, ReportStatusCompleted, ReportStatusArchived:
		return true
	}
	return false
}

// ValidPriority reports whether p is a known report priority.
func ValidPriority(p ReportPriority) bool {
	switch p {
	case ReportPriorityLow, ReportPriorityMedium, ReportPriorityHigh, ReportPriorityUrgent:
		return true
	}
	return false
}
