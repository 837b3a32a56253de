package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/assetdesk/problem-report-service/internal/api/dto"
	"github.com/assetdesk/problem-report-service/internal/auth"
	"github.com/assetdesk/problem-report-service/internal/domain"
	"github.com/assetdesk/problem-report-service/internal/repository"
	"github.com/assetdesk/problem-report-service/internal/service"
	apperrors "github.com/assetdesk/problem-report-service/pkg/util"
)

// UsersHandler exposes auth and user listing endpoints.
type UsersHandler struct {
	auth  *service.AuthService
	users repository.UserRepository
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, users repository.UserRepository) *UsersHandler {
	return &UsersHandler{auth: authService, users: users}
}

// Register handles POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, token, exp, err := h.auth.Register(c.Context(), req.Name, req.Email, req.Password, req.Department)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": userResponse(user),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Login handles POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}
	user, token, exp, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": userResponse(user),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// ListUsers handles GET /users. Consumers filter by role themselves, e.g. the
// assignee picker keeps only admins.
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	users, err := h.users.List(c.Context())
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		Department: user.Department,
		CreatedAt:  user.CreatedAt,
	}
}
