package events

import (
	"time"

	"github.com/assetdesk/problem-report-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventReportCreated       EventType = "report_created"
	EventReportStatusChanged EventType = "report_status_changed"
	EventReportAssigned      EventType = "report_assigned"
	EventReportArchived      EventType = "report_archived"
	EventReportMessageAdded  EventType = "report_message_added"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ReportID  string      `json:"report_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ReportCreatedPayload payload.
type ReportCreatedPayload struct {
	Subject     string                `json:"subject"`
	Priority    domain.ReportPriority `json:"priority"`
	RequesterID string                `json:"requester_id"`
}

// ReportStatusChangedPayload payload.
type ReportStatusChangedPayload struct {
	OldStatus domain.ReportStatus `json:"old_status"`
	NewStatus domain.ReportStatus `json:"new_status"`
}

// ReportAssignedPayload payload.
type ReportAssignedPayload struct {
	AssignedToID *string `json:"assigned_to_id,omitempty"`
}

// ReportMessageAddedPayload payload.
type ReportMessageAddedPayload struct {
	MessageID   string `json:"message_id"`
	AuthorID    string `json:"author_id"`
	IsInternal  bool   `json:"is_internal"`
	BodyPreview string `json:"body_preview"`
}
