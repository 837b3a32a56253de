package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/assetdesk/problem-report-service/internal/api/http/handlers"
	"github.com/assetdesk/problem-report-service/internal/auth"
	"github.com/assetdesk/problem-report-service/internal/config"
	"github.com/assetdesk/problem-report-service/internal/domain"
	"github.com/assetdesk/problem-report-service/internal/events"
	"github.com/assetdesk/problem-report-service/internal/observability"
	"github.com/assetdesk/problem-report-service/internal/repository"
	"github.com/assetdesk/problem-report-service/internal/service"
)

type stubStore struct {
	mu            sync.Mutex
	seq           int
	reports       map[string]domain.ProblemReport
	messages      map[string][]domain.ReportMessage
	users         map[string]domain.User
	notifications []domain.Notification
}

func newStubStore() *stubStore {
	return &stubStore{
		reports:  make(map[string]domain.ProblemReport),
		messages: make(map[string][]domain.ReportMessage),
		users:    make(map[string]domain.User),
	}
}

func (s *stubStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

type stubReportRepo struct{ store *stubStore }

func (r *stubReportRepo) Create(ctx context.Context, report *domain.ProblemReport) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	report.ID = r.store.nextID("report")
	report.CreatedAt = time.Now()
	report.UpdatedAt = report.CreatedAt
	r.store.reports[report.ID] = *report
	return nil
}

func (r *stubReportRepo) Update(ctx context.Context, report *domain.ProblemReport) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.reports[report.ID]; !ok {
		return pgx.ErrNoRows
	}
	report.UpdatedAt = time.Now()
	r.store.reports[report.ID] = *report
	return nil
}

func (r *stubReportRepo) GetByID(ctx context.Context, id string) (*domain.ProblemReport, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	report, ok := r.store.reports[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := report
	return &copied, nil
}

func (r *stubReportRepo) List(ctx context.Context, filter repository.ReportFilter) ([]domain.ProblemReport, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var result []domain.ProblemReport
	for _, report := range r.store.reports {
		if filter.RequesterID != nil && report.RequesterID != *filter.RequesterID {
			continue
		}
		result = append(result, report)
	}
	return result, nil
}

type stubMessageRepo struct{ store *stubStore }

func (r *stubMessageRepo) Create(ctx context.Context, msg *domain.ReportMessage) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	msg.ID = r.store.nextID("message")
	msg.CreatedAt = time.Now()
	r.store.messages[msg.ReportID] = append(r.store.messages[msg.ReportID], *msg)
	return nil
}

func (r *stubMessageRepo) ListByReport(ctx context.Context, reportID string) ([]domain.ReportMessage, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return append([]domain.ReportMessage{}, r.store.messages[reportID]...), nil
}

type stubUserRepo struct{ store *stubStore }

func (r *stubUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user.ID = r.store.nextID("user")
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.store.users[user.ID] = *user
	return nil
}

func (r *stubUserRepo) Update(ctx context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.store.users[user.ID] = *user
	return nil
}

func (r *stubUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := user
	return &copied, nil
}

func (r *stubUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, user := range r.store.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *stubUserRepo) List(ctx context.Context) ([]domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var users []domain.User
	for _, user := range r.store.users {
		users = append(users, user)
	}
	return users, nil
}

func (r *stubUserRepo) ListByRole(ctx context.Context, role domain.UserRole) ([]domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var users []domain.User
	for _, user := range r.store.users {
		if user.Role == role {
			users = append(users, user)
		}
	}
	return users, nil
}

type stubNotificationRepo struct{ store *stubStore }

func (r *stubNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	n.ID = r.store.nextID("notification")
	n.CreatedAt = time.Now()
	r.store.notifications = append(r.store.notifications, *n)
	return nil
}

func (r *stubNotificationRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var result []domain.Notification
	for _, n := range r.store.notifications {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	return result, nil
}

func (r *stubNotificationRepo) MarkRead(ctx context.Context, userID, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range r.store.notifications {
		if r.store.notifications[i].ID == id && r.store.notifications[i].UserID == userID {
			r.store.notifications[i].IsRead = true
			return nil
		}
	}
	return pgx.ErrNoRows
}

type testEnv struct {
	app        *fiber.App
	store      *stubStore
	authSvc    *service.AuthService
	adminToken string
	admin      domain.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newStubStore()
	reportRepo := &stubReportRepo{store: store}
	messageRepo := &stubMessageRepo{store: store}
	userRepo := &stubUserRepo{store: store}
	notificationRepo := &stubNotificationRepo{store: store}

	dispatcher := events.NewInMemoryDispatcher()
	reportSvc := service.NewReportService(service.ReportDependencies{
		ReportRepo:  reportRepo,
		MessageRepo: messageRepo,
		UserRepo:    userRepo,
		Dispatcher:  dispatcher,
	})
	notificationSvc := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher:       dispatcher,
		NotificationRepo: notificationRepo,
		ReportRepo:       reportRepo,
		UserRepo:         userRepo,
	}, zap.NewNop())
	notificationSvc.RegisterHandlers()

	authSvc := service.NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            4,
	}, userRepo)

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("problem-report-service", "test", nil, nil),
		Users:          handlers.NewUsersHandler(authSvc, userRepo),
		Reports:        handlers.NewReportsHandler(reportSvc),
		Notifications:  handlers.NewNotificationsHandler(notificationSvc),
		AuthMiddleware: auth.NewAuthMiddleware(authSvc.TokenManager(), userRepo),
	})

	admin := &domain.User{Name: "Ada Admin", Email: "ada@example.com", Role: domain.RoleAdmin}
	require.NoError(t, userRepo.Create(context.Background(), admin))
	adminToken, _, err := authSvc.TokenManager().GenerateToken(admin)
	require.NoError(t, err)

	return &testEnv{app: app, store: store, authSvc: authSvc, adminToken: adminToken, admin: *admin}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) (int, json.RawMessage) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Error json.RawMessage `json:"error"`
	}
	require.NoError(t, json.Unmarshal(payload, &envelope))
	if resp.StatusCode >= 400 {
		return resp.StatusCode, envelope.Error
	}
	return resp.StatusCode, envelope.Data
}

func (e *testEnv) registerRequester(t *testing.T, email string) (string, string) {
	t.Helper()
	status, data := e.request(t, http.MethodPost, "/auth/register", "", map[string]any{
		"name":     "Uma User",
		"email":    email,
		"password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, status)
	var out struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Auth struct {
			Token string `json:"token"`
		} `json:"auth"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	return out.User.ID, out.Auth.Token
}

func TestHealthLive(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp, err := env.app.Test(req, 5000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	env := newTestEnv(t)
	status, _ := env.request(t, http.MethodGet, "/problem-reports", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.request(t, http.MethodGet, "/problem-reports", "garbage-token", nil)
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	_, _ = env.registerRequester(t, "uma@example.com")

	status, data := env.request(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email": "uma@example.com", "password": "hunter22",
	})
	require.Equal(t, http.StatusOK, status)
	var out struct {
		User struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	require.Equal(t, "user", out.User.Role)
}

func TestReportLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.registerRequester(t, "uma@example.com")

	// requester opens a report
	status, data := env.request(t, http.MethodPost, "/problem-reports", userToken, map[string]any{
		"subject":     "Laptop will not boot",
		"description": "Black screen on power up",
		"priority":    "high",
	})
	require.Equal(t, http.StatusCreated, status)
	var report struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(data, &report))
	require.Equal(t, "open", report.Status)

	// a requester may not change status
	status, _ = env.request(t, http.MethodPatch, "/problem-reports/"+report.ID, userToken, map[string]any{
		"status": "in_progress",
	})
	require.Equal(t, http.StatusForbidden, status)

	// admin moves it forward
	status, _ = env.request(t, http.MethodPatch, "/problem-reports/"+report.ID, env.adminToken, map[string]any{
		"status": "in_progress",
	})
	require.Equal(t, http.StatusOK, status)

	// archived is not settable through PATCH
	status, _ = env.request(t, http.MethodPatch, "/problem-reports/"+report.ID, env.adminToken, map[string]any{
		"status": "archived",
	})
	require.Equal(t, http.StatusBadRequest, status)

	// archive before completion conflicts
	status, _ = env.request(t, http.MethodPost, "/problem-reports/"+report.ID+"/archive", env.adminToken, nil)
	require.Equal(t, http.StatusConflict, status)

	status, data = env.request(t, http.MethodPatch, "/problem-reports/"+report.ID, env.adminToken, map[string]any{
		"status": "completed",
	})
	require.Equal(t, http.StatusOK, status)
	var completed struct {
		CompletedBy *string `json:"completedBy"`
	}
	require.NoError(t, json.Unmarshal(data, &completed))
	require.NotNil(t, completed.CompletedBy)

	status, data = env.request(t, http.MethodPost, "/problem-reports/"+report.ID+"/archive", env.adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(data, &report))
	require.Equal(t, "archived", report.Status)

	// archived threads are closed for new messages
	status, _ = env.request(t, http.MethodPost, "/problem-reports/"+report.ID+"/messages", userToken, map[string]any{
		"message": "one more thing",
	})
	require.Equal(t, http.StatusConflict, status)
}

func TestMessageVisibilityOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.registerRequester(t, "uma@example.com")

	status, data := env.request(t, http.MethodPost, "/problem-reports", userToken, map[string]any{
		"subject": "Printer jam", "description": "Tray two keeps jamming",
	})
	require.Equal(t, http.StatusCreated, status)
	var report struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(data, &report))

	// requester-sent internal flag is ignored
	status, data = env.request(t, http.MethodPost, "/problem-reports/"+report.ID+"/messages", userToken, map[string]any{
		"message": "It happened again", "isInternal": true,
	})
	require.Equal(t, http.StatusCreated, status)
	var msg struct {
		IsInternal bool `json:"isInternal"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	require.False(t, msg.IsInternal)

	// empty bodies are rejected
	status, _ = env.request(t, http.MethodPost, "/problem-reports/"+report.ID+"/messages", userToken, map[string]any{
		"message": "   ",
	})
	require.Equal(t, http.StatusBadRequest, status)

	// admin leaves an internal note
	status, _ = env.request(t, http.MethodPost, "/problem-reports/"+report.ID+"/messages", env.adminToken, map[string]any{
		"message": "Roller needs replacing", "isInternal": true,
	})
	require.Equal(t, http.StatusCreated, status)

	var thread []struct {
		IsInternal bool `json:"isInternal"`
	}
	status, data = env.request(t, http.MethodGet, "/problem-reports/"+report.ID+"/messages", userToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(data, &thread))
	require.Len(t, thread, 1)

	status, data = env.request(t, http.MethodGet, "/problem-reports/"+report.ID+"/messages", env.adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(data, &thread))
	require.Len(t, thread, 2)
}

func TestReportAccessScopedOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	_, umaToken := env.registerRequester(t, "uma@example.com")
	_, otherToken := env.registerRequester(t, "omar@example.com")

	status, data := env.request(t, http.MethodPost, "/problem-reports", umaToken, map[string]any{
		"subject": "VPN down", "description": "Cannot connect from home",
	})
	require.Equal(t, http.StatusCreated, status)
	var report struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(data, &report))

	status, _ = env.request(t, http.MethodGet, "/problem-reports/"+report.ID, otherToken, nil)
	require.Equal(t, http.StatusForbidden, status)

	status, _ = env.request(t, http.MethodGet, "/problem-reports/"+report.ID, env.adminToken, nil)
	require.Equal(t, http.StatusOK, status)
}

func TestNotificationsOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.registerRequester(t, "uma@example.com")

	status, data := env.request(t, http.MethodPost, "/problem-reports", userToken, map[string]any{
		"subject": "Disk full", "description": "No space left on device",
	})
	require.Equal(t, http.StatusCreated, status)
	var report struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(data, &report))

	// the admin was notified of the new report
	var items []struct {
		ID        string  `json:"id"`
		RelatedID *string `json:"relatedId"`
		IsRead    bool    `json:"isRead"`
	}
	status, data = env.request(t, http.MethodGet, "/notifications", env.adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(data, &items))
	require.Len(t, items, 1)
	require.NotNil(t, items[0].RelatedID)
	require.Equal(t, report.ID, *items[0].RelatedID)

	// marking someone else's notification fails
	status, _ = env.request(t, http.MethodPost, "/notifications/"+items[0].ID+"/read", userToken, nil)
	require.Equal(t, http.StatusNotFound, status)

	status, _ = env.request(t, http.MethodPost, "/notifications/"+items[0].ID+"/read", env.adminToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, data = env.request(t, http.MethodGet, "/notifications", env.adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(data, &items))
	require.True(t, items[0].IsRead)
}
