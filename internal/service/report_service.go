package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/assetdesk/problem-report-service/internal/domain"
	"github.com/assetdesk/problem-report-service/internal/events"
	"github.com/assetdesk/problem-report-service/internal/repository"
	apperrors "github.com/assetdesk/problem-report-service/pkg/util"
)

// ReportService coordinates problem report workflows.
type ReportService struct {
	reports    repository.ReportRepository
	messages   repository.ReportMessageRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	cache      ReportCache
}

// ReportDependencies bundles collaborators for the report service.
type ReportDependencies struct {
	ReportRepo  repository.ReportRepository
	MessageRepo repository.ReportMessageRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
	Cache       ReportCache
}

// ReportCreateInput describes report submission payload.
type ReportCreateInput struct {
	Subject     string
	Description string
	Priority    domain.ReportPriority
}

// ReportListFilter describes listing filters.
type ReportListFilter struct {
	Statuses []domain.ReportStatus
	Limit    int
	Offset   int
}

// NewReportService constructs the service.
func NewReportService(deps ReportDependencies) *ReportService {
	return &ReportService{
		reports:    deps.ReportRepo,
		messages:   deps.MessageRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		cache:      deps.Cache,
	}
}

// CreateReport submits a new problem report for the requester.
func (s *ReportService) CreateReport(ctx context.Context, requester *domain.User, input ReportCreateInput) (*domain.ProblemReport, error) {
	subject := strings.TrimSpace(input.Subject)
	description := strings.TrimSpace(input.Description)
	if subject == "" || description == "" {
		return nil, apperrors.NewValidationError("subject and description required", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.ReportPriorityMedium
	}
	if !domain.ValidPriority(priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}

	report := &domain.ProblemReport{
		Subject:     subject,
		Description: description,
		Status:      domain.ReportStatusOpen,
		Priority:    priority,
		RequesterID: requester.ID,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventReportCreated,
		ReportID: report.ID,
		ActorID:  requester.ID,
		Payload: events.ReportCreatedPayload{
			Subject:     report.Subject,
			Priority:    report.Priority,
			RequesterID: report.RequesterID,
		},
	})
	return report, nil
}

// ListReports returns reports visible to the viewer: admins see everything,
// requesters only their own.
func (s *ReportService) ListReports(ctx context.Context, viewer *domain.User, filter ReportListFilter) ([]domain.ProblemReport, error) {
	repoFilter := repository.ReportFilter{
		Statuses: filter.Statuses,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}
	if !viewer.IsAdmin() {
		requesterID := viewer.ID
		repoFilter.RequesterID = &requesterID
	}
	reports, err := s.reports.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return reports, nil
}

// GetReport fetches a report ensuring viewer access, reading through the cache.
func (s *ReportService) GetReport(ctx context.Context, viewer *domain.User, reportID string) (*domain.ProblemReport, error) {
	if s.cache != nil {
		if report, ok := s.cache.Get(ctx, reportID); ok {
			if err := s.checkAccess(viewer, report); err != nil {
				return nil, err
			}
			return report, nil
		}
	}
	report, err := s.fetchReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccess(viewer, report); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, report)
	}
	return report, nil
}

// ListMessages returns the report thread in createdAt order. Internal notes
// are stripped for viewers who may not see them.
func (s *ReportService) ListMessages(ctx context.Context, viewer *domain.User, reportID string) ([]domain.ReportMessage, error) {
	report, err := s.fetchReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccess(viewer, report); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByReport(ctx, reportID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	visible := make([]domain.ReportMessage, 0, len(msgs))
	for _, msg := range msgs {
		if msg.VisibleTo(viewer) {
			visible = append(visible, msg)
		}
	}
	return visible, nil
}

// AddMessage appends a message to a report thread.
func (s *ReportService) AddMessage(ctx context.Context, author *domain.User, reportID, body string, isInternal bool) (*domain.ReportMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("message body required", nil)
	}
	report, err := s.fetchReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccess(author, report); err != nil {
		return nil, err
	}
	if report.IsArchived() {
		return nil, apperrors.NewConflict("report archived", map[string]any{"report_id": reportID})
	}
	if !author.IsAdmin() {
		isInternal = false
	}

	msg := &domain.ReportMessage{
		ReportID:   report.ID,
		AuthorID:   author.ID,
		Message:    body,
		IsInternal: isInternal,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventReportMessageAdded,
		ReportID: report.ID,
		ActorID:  author.ID,
		Payload: events.ReportMessageAddedPayload{
			MessageID:   msg.ID,
			AuthorID:    msg.AuthorID,
			IsInternal:  msg.IsInternal,
			BodyPreview: bodyPreview(msg.Message, 120),
		},
	})
	return msg, nil
}

// SetStatus moves a report forward through its lifecycle. Archiving is not
// reachable here; it has a dedicated operation.
func (s *ReportService) SetStatus(ctx context.Context, actor *domain.User, reportID string, newStatus domain.ReportStatus) (*domain.ProblemReport, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	if !domain.ValidStatus(newStatus) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": newStatus})
	}
	if newStatus == domain.ReportStatusArchived {
		return nil, apperrors.NewValidationError("archiving uses the archive operation", nil)
	}
	report, err := s.fetchReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(report.Status, newStatus) {
		return nil, apperrors.NewConflict("invalid status transition", map[string]any{
			"from": report.Status,
			"to":   newStatus,
		})
	}
	oldStatus := report.Status
	report.Status = newStatus
	if newStatus == domain.ReportStatusCompleted {
		now := time.Now()
		actorID := actor.ID
		report.CompletedAt = &now
		report.CompletedBy = &actorID
	}
	if err := s.reports.Update(ctx, report); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidate(ctx, report.ID)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventReportStatusChanged,
		ReportID: report.ID,
		ActorID:  actor.ID,
		Payload: events.ReportStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return report, nil
}

// SetAssignee assigns the report to an admin, or clears the assignment when
// assignedToID is nil.
func (s *ReportService) SetAssignee(ctx context.Context, actor *domain.User, reportID string, assignedToID *string) (*domain.ProblemReport, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	if assignedToID != nil {
		assignee, err := s.users.GetByID(ctx, *assignedToID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("assignee", map[string]any{"user_id": *assignedToID})
			}
			return nil, apperrors.MapError(err)
		}
		if !assignee.IsAdmin() {
			return nil, apperrors.NewValidationError("assignee must be an admin", map[string]any{"user_id": assignee.ID})
		}
	}
	report, err := s.fetchReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.IsArchived() {
		return nil, apperrors.NewConflict("report archived", map[string]any{"report_id": reportID})
	}
	report.AssignedToID = assignedToID
	if err := s.reports.Update(ctx, report); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidate(ctx, report.ID)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventReportAssigned,
		ReportID: report.ID,
		ActorID:  actor.ID,
		Payload: events.ReportAssignedPayload{
			AssignedToID: report.AssignedToID,
		},
	})
	return report, nil
}

// Archive moves a completed report into the terminal archived state.
func (s *ReportService) Archive(ctx context.Context, actor *domain.User, reportID string) (*domain.ProblemReport, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	report, err := s.fetchReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.Status != domain.ReportStatusCompleted {
		return nil, apperrors.NewConflict("only completed reports can be archived", map[string]any{
			"status": report.Status,
		})
	}
	oldStatus := report.Status
	report.Status = domain.ReportStatusArchived
	if err := s.reports.Update(ctx, report); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.invalidate(ctx, report.ID)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventReportArchived,
		ReportID: report.ID,
		ActorID:  actor.ID,
		Payload: events.ReportStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: report.Status,
		},
	})
	return report, nil
}

func (s *ReportService) fetchReport(ctx context.Context, reportID string) (*domain.ProblemReport, error) {
	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("problem report", map[string]any{"report_id": reportID})
		}
		return nil, apperrors.MapError(err)
	}
	return report, nil
}

func (s *ReportService) checkAccess(viewer *domain.User, report *domain.ProblemReport) error {
	if viewer.IsAdmin() || report.RequesterID == viewer.ID {
		return nil
	}
	return apperrors.NewForbidden("access denied")
}

func (s *ReportService) invalidate(ctx context.Context, reportID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, reportID)
	}
}

func (s *ReportService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func bodyPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
