package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-request-service/internal/api/dto"
	"github.com/spec-kit/civic-request-service/internal/domain"
	"github.com/spec-kit/civic-request-service/internal/service"
	apperrors "github.com/spec-kit/civic-request-service/pkg/util"
)

// RequestsHandler manages public request endpoints.
type RequestsHandler struct {
	service *service.RequestService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requestService *service.RequestService) *RequestsHandler {
	return &RequestsHandler{service: requestService}
}

// CreateRequest POST /requests.
func (h *RequestsHandler) CreateRequest(c *fiber.Ctx) error {
	var req dto.CreateRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.RequestCreateInput{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Priority:    domain.Priority(req.Priority),
	}
	request, err := h.service.CreateRequest(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": requestSummary(request)})
}

// TrackRequest GET /requests/track/:number.
func (h *RequestsHandler) TrackRequest(c *fiber.Ctx) error {
	detail, err := h.service.TrackByNumber(c.UserContext(), c.Params("number"))
	if err != nil {
		return err
	}
	// Public view: no submitter contact details, no assignment rows.
	resp := requestDetail(detail)
	resp.Citizen = nil
	resp.Assignments = nil
	return c.JSON(fiber.Map{"data": resp})
}

func requestSummary(request *domain.ServiceRequest) dto.RequestSummary {
	status, _ := domain.StatusByID(request.StatusID)
	return dto.RequestSummary{
		ID:            request.ID,
		RequestNumber: request.RequestNumber,
		Title:         request.Title,
		CategoryID:    request.CategoryID,
		StatusID:      request.StatusID,
		Status:        status.Name,
		Priority:      request.Priority,
		SubmittedAt:   request.SubmittedAt,
		SLADeadline:   request.SLADeadline,
		IsSLABreached: request.IsSLABreached,
	}
}

func requestDetail(detail *service.RequestDetail) dto.RequestDetailResponse {
	request := detail.Request
	status, _ := domain.StatusByID(request.StatusID)

	updates := make([]dto.UpdateResponse, 0, len(detail.Updates))
	for _, u := range detail.Updates {
		updates = append(updates, dto.UpdateResponse{
			ID:         u.ID,
			UserID:     u.UserID,
			Comment:    u.Comment,
			UpdateType: u.UpdateType,
			Internal:   u.Internal,
			CreatedAt:  u.CreatedAt,
		})
	}

	assignments := make([]dto.AssignmentResponse, 0, len(detail.Assignments))
	for _, a := range detail.Assignments {
		assignments = append(assignments, dto.AssignmentResponse{
			ID:               a.ID,
			AssignedToUserID: a.AssignedToUserID,
			AssignedByUserID: a.AssignedByUserID,
			Notes:            a.Notes,
			AssignedAt:       a.AssignedAt,
			CompletedAt:      a.CompletedAt,
			Active:           a.Active,
		})
	}

	resp := dto.RequestDetailResponse{
		ID:              request.ID,
		RequestNumber:   request.RequestNumber,
		Title:           request.Title,
		Description:     request.Description,
		StatusID:        request.StatusID,
		Status:          status.Name,
		BadgeColor:      status.BadgeColor,
		Address:         request.Address,
		Latitude:        request.Latitude,
		Longitude:       request.Longitude,
		Priority:        request.Priority,
		SubmittedAt:     request.SubmittedAt,
		AssignedAt:      request.AssignedAt,
		ResolvedAt:      request.ResolvedAt,
		ClosedAt:        request.ClosedAt,
		SLAHours:        request.SLAHours,
		SLADeadline:     request.SLADeadline,
		IsSLABreached:   request.IsSLABreached,
		ResolutionNotes: request.ResolutionNotes,
		Updates:         updates,
		Assignments:     assignments,
	}
	if detail.Category != nil {
		resp.Category = &dto.CategoryResponse{
			ID:              detail.Category.ID,
			Name:            detail.Category.Name,
			Description:     detail.Category.Description,
			DefaultSLAHours: detail.Category.DefaultSLAHours,
		}
	}
	if detail.Citizen != nil {
		resp.Citizen = &dto.CitizenResponse{
			ID:        detail.Citizen.ID,
			FirstName: detail.Citizen.FirstName,
			LastName:  detail.Citizen.LastName,
			Email:     detail.Citizen.Email,
			Phone:     detail.Citizen.Phone,
		}
	}
	return resp
}
