package client

import (
	"context"
	"net/http"
	"sync"
)

// ReportView binds one problem report to a detail surface: load, assignment,
// status moves and archive. Mutations are never applied optimistically; a
// failed request leaves the last loaded state untouched and returns the
// error for the caller to surface.
type ReportView struct {
	client   *Client
	reportID string
	viewer   Viewer

	// onClose fires after a successful archive.
	onClose func()

	mu   sync.Mutex
	last *Report
}

// NewReportView creates a view over a report for the given viewer. onClose
// may be nil.
func NewReportView(c *Client, reportID string, viewer Viewer, onClose func()) *ReportView {
	return &ReportView{client: c, reportID: reportID, viewer: viewer, onClose: onClose}
}

// Load fetches the report through the cache and remembers it as the last
// known state.
func (v *ReportView) Load(ctx context.Context) (*Report, error) {
	report, err := v.client.Report(ctx, v.reportID)
	if err != nil {
		return nil, err
	}
	v.mu.Lock()
	v.last = report
	v.mu.Unlock()
	return report, nil
}

// Current returns the last loaded state, which survives failed mutations.
func (v *ReportView) Current() *Report {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last
}

// Assignees lists the candidate assignees: all admin users. Only admin
// viewers see the assignment control.
func (v *ReportView) Assignees(ctx context.Context) ([]User, error) {
	if !v.viewer.IsAdmin() {
		return nil, ErrAdminOnly
	}
	users, err := v.client.Users(ctx)
	if err != nil {
		return nil, err
	}
	admins := make([]User, 0, len(users))
	for _, user := range users {
		if user.Role == RoleAdmin {
			admins = append(admins, user)
		}
	}
	return admins, nil
}

// SetAssignee writes the assignment, or clears it when userID is nil. On
// success the report is refetched so the view reflects server state.
func (v *ReportView) SetAssignee(ctx context.Context, userID *string) error {
	if !v.viewer.IsAdmin() {
		return ErrAdminOnly
	}
	body := map[string]any{"clearAssignee": true}
	if userID != nil {
		body = map[string]any{"assignedToId": *userID}
	}
	if _, err := v.client.UpdateReport(ctx, v.reportID, body); err != nil {
		return err
	}
	_, err := v.Load(ctx)
	return err
}

// SetStatus moves the report to one of open/in_progress/completed. The
// archived state is reached through Archive, never through here.
func (v *ReportView) SetStatus(ctx context.Context, status string) error {
	if !v.viewer.IsAdmin() {
		return ErrAdminOnly
	}
	switch status {
	case StatusOpen, StatusInProgress, StatusCompleted:
	default:
		return &APIError{Status: http.StatusBadRequest, Code: "VALIDATION_FAILED", Message: "status not settable: " + status}
	}
	if _, err := v.client.UpdateReport(ctx, v.reportID, map[string]any{"status": status}); err != nil {
		return err
	}
	_, err := v.Load(ctx)
	return err
}

// CanArchive reports whether the archive action is offered: only once the
// last loaded status is completed.
func (v *ReportView) CanArchive() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last != nil && v.last.Status == StatusCompleted
}

// Archive archives the report and closes the view on success.
func (v *ReportView) Archive(ctx context.Context) error {
	if !v.viewer.IsAdmin() {
		return ErrAdminOnly
	}
	if !v.CanArchive() {
		return ErrNotCompleted
	}
	report, err := v.client.ArchiveReport(ctx, v.reportID)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.last = report
	v.mu.Unlock()
	if v.onClose != nil {
		v.onClose()
	}
	return nil
}
