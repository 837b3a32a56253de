package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/assetdesk/problem-report-service/internal/domain"
	"github.com/assetdesk/problem-report-service/internal/repository"
)

type memReportRepo struct {
	mu      sync.Mutex
	seq     int
	reports map[string]domain.ProblemReport
}

func newMemReportRepo() *memReportRepo {
	return &memReportRepo{reports: make(map[string]domain.ProblemReport)}
}

func (r *memReportRepo) Create(ctx context.Context, report *domain.ProblemReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	report.ID = fmt.Sprintf("report-%d", r.seq)
	report.CreatedAt = time.Now()
	report.UpdatedAt = report.CreatedAt
	r.reports[report.ID] = *report
	return nil
}

func (r *memReportRepo) Update(ctx context.Context, report *domain.ProblemReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reports[report.ID]; !ok {
		return pgx.ErrNoRows
	}
	report.UpdatedAt = time.Now()
	r.reports[report.ID] = *report
	return nil
}

func (r *memReportRepo) GetByID(ctx context.Context, id string) (*domain.ProblemReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.reports[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := report
	return &copied, nil
}

func (r *memReportRepo) List(ctx context.Context, filter repository.ReportFilter) ([]domain.ProblemReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.ProblemReport
	for _, report := range r.reports {
		if filter.RequesterID != nil && report.RequesterID != *filter.RequesterID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, report.Status) {
			continue
		}
		result = append(result, report)
	}
	return result, nil
}

func containsStatus(statuses []domain.ReportStatus, status domain.ReportStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type memMessageRepo struct {
	mu       sync.Mutex
	seq      int
	messages map[string][]domain.ReportMessage
}

func newMemMessageRepo() *memMessageRepo {
	return &memMessageRepo{messages: make(map[string][]domain.ReportMessage)}
}

func (r *memMessageRepo) Create(ctx context.Context, msg *domain.ReportMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	msg.ID = fmt.Sprintf("message-%d", r.seq)
	msg.CreatedAt = time.Now()
	r.messages[msg.ReportID] = append(r.messages[msg.ReportID], *msg)
	return nil
}

func (r *memMessageRepo) ListByReport(ctx context.Context, reportID string) ([]domain.ReportMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ReportMessage{}, r.messages[reportID]...), nil
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newMemUserRepo(users ...domain.User) *memUserRepo {
	repo := &memUserRepo{users: make(map[string]domain.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *memUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", len(r.users)+1)
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := user
	return &copied, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) List(ctx context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []domain.User
	for _, user := range r.users {
		users = append(users, user)
	}
	return users, nil
}

func (r *memUserRepo) ListByRole(ctx context.Context, role domain.UserRole) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []domain.User
	for _, user := range r.users {
		if user.Role == role {
			users = append(users, user)
		}
	}
	return users, nil
}

type memNotificationRepo struct {
	mu   sync.Mutex
	seq  int
	rows []domain.Notification
}

func newMemNotificationRepo() *memNotificationRepo {
	return &memNotificationRepo{}
}

func (r *memNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	n.ID = fmt.Sprintf("notification-%d", r.seq)
	n.CreatedAt = time.Now()
	r.rows = append(r.rows, *n)
	return nil
}

func (r *memNotificationRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Notification
	for _, row := range r.rows {
		if row.UserID == userID {
			result = append(result, row)
		}
	}
	return result, nil
}

func (r *memNotificationRepo) MarkRead(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == id && r.rows[i].UserID == userID {
			r.rows[i].IsRead = true
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *memNotificationRepo) all() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Notification{}, r.rows...)
}

type recordingCache struct {
	mu          sync.Mutex
	entries     map[string]domain.ProblemReport
	invalidated []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: make(map[string]domain.ProblemReport)}
}

func (c *recordingCache) Get(ctx context.Context, reportID string) (*domain.ProblemReport, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	report, ok := c.entries[reportID]
	if !ok {
		return nil, false
	}
	copied := report
	return &copied, true
}

func (c *recordingCache) Set(ctx context.Context, report *domain.ProblemReport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[report.ID] = *report
}

func (c *recordingCache) Invalidate(ctx context.Context, reportID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, reportID)
	c.invalidated = append(c.invalidated, reportID)
}

func (c *recordingCache) invalidations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.invalidated...)
}
