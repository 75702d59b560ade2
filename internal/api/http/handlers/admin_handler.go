package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-request-service/internal/api/dto"
	"github.com/spec-kit/civic-request-service/internal/auth"
	"github.com/spec-kit/civic-request-service/internal/domain"
	"github.com/spec-kit/civic-request-service/internal/repository"
	"github.com/spec-kit/civic-request-service/internal/service"
	apperrors "github.com/spec-kit/civic-request-service/pkg/util"
)

// AdminHandler exposes the staff request-management endpoints.
type AdminHandler struct {
	requests    *service.RequestService
	assignments *service.AssignmentService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(requestService *service.RequestService, assignmentService *service.AssignmentService) *AdminHandler {
	return &AdminHandler{requests: requestService, assignments: assignmentService}
}

// ListRequests GET /admin/requests.
func (h *AdminHandler) ListRequests(c *fiber.Ctx) error {
	filter := parseAdminRequestQuery(c)
	requests, err := h.requests.ListRequests(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.RequestSummary, 0, len(requests))
	for i := range requests {
		items = append(items, requestSummary(&requests[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetRequest GET /admin/requests/:id.
func (h *AdminHandler) GetRequest(c *fiber.Ctx) error {
	detail, err := h.requests.GetDetail(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	rows, err := h.assignments.ListAssignments(c.UserContext(), detail.Request.ID)
	if err != nil {
		return err
	}
	detail.Assignments = rows
	return c.JSON(fiber.Map{"data": requestDetail(detail)})
}

// ChangeStatus POST /admin/requests/:id/status.
func (h *AdminHandler) ChangeStatus(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	request, err := h.requests.ChangeStatus(c.UserContext(), actor, c.Params("id"), domain.StatusID(req.StatusID), req.Comment, req.ResolutionNotes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestSummary(request)})
}

// AssignRequest POST /admin/requests/:id/assign.
func (h *AdminHandler) AssignRequest(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AssigneeID == "" {
		return apperrors.NewValidationError("assignee_id required", nil)
	}

	assignment, err := h.assignments.Assign(c.UserContext(), actor, c.Params("id"), req.AssigneeID, req.Notes)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.AssignmentResponse{
		ID:               assignment.ID,
		AssignedToUserID: assignment.AssignedToUserID,
		AssignedByUserID: assignment.AssignedByUserID,
		Notes:            assignment.Notes,
		AssignedAt:       assignment.AssignedAt,
		CompletedAt:      assignment.CompletedAt,
		Active:           assignment.Active,
	}})
}

// AddComment POST /admin/requests/:id/comments.
func (h *AdminHandler) AddComment(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	update, err := h.requests.AddComment(c.UserContext(), actor, c.Params("id"), req.Comment, req.Internal)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.UpdateResponse{
		ID:         update.ID,
		UserID:     update.UserID,
		Comment:    update.Comment,
		UpdateType: update.UpdateType,
		Internal:   update.Internal,
		CreatedAt:  update.CreatedAt,
	}})
}

func requireActor(c *fiber.Ctx) (string, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return "", apperrors.NewUnauthorized("staff authentication required")
	}
	return principal.User.ID, nil
}

func parseAdminRequestQuery(c *fiber.Ctx) repository.RequestFilter {
	filter := repository.RequestFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		if parsed, err := strconv.Atoi(statusStr); err == nil {
			statusID := domain.StatusID(parsed)
			if statusID.Valid() {
				filter.StatusID = &statusID
			}
		}
	}
	if categoryID := c.Query("category"); categoryID != "" {
		filter.CategoryID = &categoryID
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
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
