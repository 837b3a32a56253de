package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/assetdesk/problem-report-service/internal/domain"
	"github.com/assetdesk/problem-report-service/internal/events"
	"github.com/assetdesk/problem-report-service/internal/repository"
)

// NotificationService turns domain events into per-recipient notification rows.
type NotificationService struct {
	dispatcher    events.Dispatcher
	notifications repository.NotificationRepository
	reports       repository.ReportRepository
	users         repository.UserRepository
	logger        *zap.Logger
}

// NotificationDependencies bundles collaborators.
type NotificationDependencies struct {
	Dispatcher       events.Dispatcher
	NotificationRepo repository.NotificationRepository
	ReportRepo       repository.ReportRepository
	UserRepo         repository.UserRepository
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher:    deps.Dispatcher,
		notifications: deps.NotificationRepo,
		reports:       deps.ReportRepo,
		users:         deps.UserRepo,
		logger:        logger,
	}
}

// RegisterHandlers subscribes to report events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventReportCreated, n.handleReportCreated)
	n.dispatcher.Subscribe(events.EventReportStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventReportAssigned, n.handleAssigned)
	n.dispatcher.Subscribe(events.EventReportArchived, n.handleArchived)
	n.dispatcher.Subscribe(events.EventReportMessageAdded, n.handleMessageAdded)
}

// ListForUser returns the viewer's notification rows, newest first.
func (n *NotificationService) ListForUser(ctx context.Context, viewer *domain.User, limit, offset int) ([]domain.Notification, error) {
	return n.notifications.ListByUser(ctx, viewer.ID, limit, offset)
}

// MarkRead flags a single notification as read for its recipient.
func (n *NotificationService) MarkRead(ctx context.Context, viewer *domain.User, notificationID string) error {
	return n.notifications.MarkRead(ctx, viewer.ID, notificationID)
}

func (n *NotificationService) handleReportCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ReportCreatedPayload)
	if !ok {
		return nil
	}
	admins, err := n.users.ListByRole(ctx, domain.RoleAdmin)
	if err != nil {
		n.logger.Warn("list admins failed", zap.Error(err))
		return err
	}
	for _, admin := range admins {
		if admin.ID == event.ActorID {
			continue
		}
		n.create(ctx, admin.ID, event.ReportID, "New problem report: "+payload.Subject)
	}
	return nil
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ReportStatusChangedPayload)
	if !ok {
		return nil
	}
	report, err := n.lookupReport(ctx, event.ReportID)
	if err != nil || report == nil {
		return err
	}
	if report.RequesterID != event.ActorID {
		n.create(ctx, report.RequesterID, report.ID, "Your problem report is now "+string(payload.NewStatus))
	}
	return nil
}

func (n *NotificationService) handleAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ReportAssignedPayload)
	if !ok {
		return nil
	}
	if payload.AssignedToID == nil || *payload.AssignedToID == event.ActorID {
		return nil
	}
	n.create(ctx, *payload.AssignedToID, event.ReportID, "A problem report was assigned to you")
	return nil
}

func (n *NotificationService) handleArchived(ctx context.Context, event events.Event) error {
	report, err := n.lookupReport(ctx, event.ReportID)
	if err != nil || report == nil {
		return err
	}
	if report.RequesterID != event.ActorID {
		n.create(ctx, report.RequesterID, report.ID, "Your problem report was archived")
	}
	return nil
}

func (n *NotificationService) handleMessageAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ReportMessageAddedPayload)
	if !ok {
		return nil
	}
	report, err := n.lookupReport(ctx, event.ReportID)
	if err != nil || report == nil {
		return err
	}

	// Internal notes stay within the admin side of the conversation.
	if payload.IsInternal {
		admins, err := n.users.ListByRole(ctx, domain.RoleAdmin)
		if err != nil {
			return err
		}
		for _, admin := range admins {
			if admin.ID == payload.AuthorID {
				continue
			}
			n.create(ctx, admin.ID, report.ID, "New internal note on a problem report")
		}
		return nil
	}

	if payload.AuthorID == report.RequesterID {
		// Requester replied: route to the assignee, or every admin when
		// the report is still unassigned.
		if report.AssignedToID != nil {
			n.create(ctx, *report.AssignedToID, report.ID, "New reply on a problem report")
			return nil
		}
		admins, err := n.users.ListByRole(ctx, domain.RoleAdmin)
		if err != nil {
			return err
		}
		for _, admin := range admins {
			n.create(ctx, admin.ID, report.ID, "New reply on a problem report")
		}
		return nil
	}

	n.create(ctx, report.RequesterID, report.ID, "New reply on your problem report")
	return nil
}

func (n *NotificationService) lookupReport(ctx context.Context, reportID string) (*domain.ProblemReport, error) {
	report, err := n.reports.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		n.logger.Warn("report lookup failed", zap.String("report_id", reportID), zap.Error(err))
		return nil, err
	}
	return report, nil
}

func (n *NotificationService) create(ctx context.Context, userID, reportID, message string) {
	related := reportID
	row := &domain.Notification{
		UserID:    userID,
		Type:      domain.NotificationProblemReport,
		Message:   message,
		RelatedID: &related,
	}
	if err := n.notifications.Create(ctx, row); err != nil {
		n.logger.Warn("notification create failed",
			zap.String("user_id", userID),
			zap.String("report_id", reportID),
			zap.Error(err))
	}
}
