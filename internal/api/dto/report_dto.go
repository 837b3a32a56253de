package dto

import (
	"time"

	"github.com/assetdesk/problem-report-service/internal/domain"
)

// CreateReportRequest payload.
type CreateReportRequest struct {
	Subject     string                `json:"subject"`
	Description string                `json:"description"`
	Priority    domain.ReportPriority `json:"priority"`
}

// UpdateReportRequest carries a partial update: either a status move or an
// assignment change. Pointer fields distinguish "absent" from "clear".
type UpdateReportRequest struct {
	Status       *domain.ReportStatus `json:"status"`
	AssignedToID *string              `json:"assignedToId"`
	// ClearAssignee unassigns the report; assignedToId=null alone is
	// indistinguishable from an absent field after JSON decoding.
	ClearAssignee bool `json:"clearAssignee"`
}

// CreateMessageRequest payload.
type CreateMessageRequest struct {
	Message    string `json:"message"`
	IsInternal bool   `json:"isInternal"`
}

// ReportResponse is the wire form of a problem report.
type ReportResponse struct {
	ID           string                `json:"id"`
	Subject      string                `json:"subject"`
	Description  string                `json:"description"`
	Status       domain.ReportStatus   `json:"status"`
	Priority     domain.ReportPriority `json:"priority"`
	RequesterID  string                `json:"requesterId"`
	AssignedToID *string               `json:"assignedToId"`
	CompletedAt  *time.Time            `json:"completedAt"`
	CompletedBy  *string               `json:"completedBy"`
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`
}

// MessageResponse is the wire form of a thread message.
type MessageResponse struct {
	ID         string    `json:"id"`
	ReportID   string    `json:"problemReportId"`
	AuthorID   string    `json:"authorId"`
	Message    string    `json:"message"`
	IsInternal bool      `json:"isInternal"`
	CreatedAt  time.Time `json:"createdAt"`
}
