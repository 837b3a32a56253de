package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/assetdesk/problem-report-service/internal/api/dto"
	"github.com/assetdesk/problem-report-service/internal/auth"
	"github.com/assetdesk/problem-report-service/internal/domain"
	"github.com/assetdesk/problem-report-service/internal/service"
	apperrors "github.com/assetdesk/problem-report-service/pkg/util"
)

// ReportsHandler manages problem report endpoints.
type ReportsHandler struct {
	service *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{service: reportService}
}

// CreateReport POST /problem-reports.
func (h *ReportsHandler) CreateReport(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	report, err := h.service.CreateReport(c.Context(), principal, service.ReportCreateInput{
		Subject:     req.Subject,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": reportResponse(report)})
}

// ListReports GET /problem-reports.
func (h *ReportsHandler) ListReports(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := service.ReportListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.ReportStatus(strings.TrimSpace(part)))
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize

	reports, err := h.service.ListReports(c.Context(), principal, filter)
	if err != nil {
		return err
	}
	items := make([]dto.ReportResponse, 0, len(reports))
	for i := range reports {
		items = append(items, reportResponse(&reports[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetReport GET /problem-reports/:id.
func (h *ReportsHandler) GetReport(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	report, err := h.service.GetReport(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reportResponse(report)})
}

// ListMessages GET /problem-reports/:id/messages.
func (h *ReportsHandler) ListMessages(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	msgs, err := h.service.ListMessages(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.MessageResponse, 0, len(msgs))
	for i := range msgs {
		items = append(items, messageResponse(&msgs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddMessage POST /problem-reports/:id/messages.
func (h *ReportsHandler) AddMessage(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	msg, err := h.service.AddMessage(c.Context(), principal, c.Params("id"), req.Message, req.IsInternal)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": messageResponse(msg)})
}

// UpdateReport PATCH /problem-reports/:id.
func (h *ReportsHandler) UpdateReport(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	switch {
	case req.Status != nil:
		report, err := h.service.SetStatus(c.Context(), principal, c.Params("id"), *req.Status)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": reportResponse(report)})
	case req.AssignedToID != nil:
		report, err := h.service.SetAssignee(c.Context(), principal, c.Params("id"), req.AssignedToID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": reportResponse(report)})
	case req.ClearAssignee:
		report, err := h.service.SetAssignee(c.Context(), principal, c.Params("id"), nil)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": reportResponse(report)})
	default:
		return apperrors.NewValidationError("status or assignedToId required", nil)
	}
}

// ArchiveReport POST /problem-reports/:id/archive.
func (h *ReportsHandler) ArchiveReport(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	report, err := h.service.Archive(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reportResponse(report)})
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func reportResponse(report *domain.ProblemReport) dto.ReportResponse {
	return dto.ReportResponse{
		ID:           report.ID,
		Subject:      report.Subject,
		Description:  report.Description,
		Status:       report.Status,
		Priority:     report.Priority,
		RequesterID:  report.RequesterID,
		AssignedToID: report.AssignedToID,
		CompletedAt:  report.CompletedAt,
		CompletedBy:  report.CompletedBy,
		CreatedAt:    report.CreatedAt,
		UpdatedAt:    report.UpdatedAt,
	}
}

func messageResponse(msg *domain.ReportMessage) dto.MessageResponse {
	return dto.MessageResponse{
		ID:         msg.ID,
		ReportID:   msg.ReportID,
		AuthorID:   msg.AuthorID,
		Message:    msg.Message,
		IsInternal: msg.IsInternal,
		CreatedAt:  msg.CreatedAt,
	}
}
