package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-request-service/internal/api/dto"
	"github.com/spec-kit/civic-request-service/internal/domain"
	"github.com/spec-kit/civic-request-service/internal/service"
	apperrors "github.com/spec-kit/civic-request-service/pkg/util"
)

// AuthHandler exposes staff authentication endpoints.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Login handles POST /auth/staff/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.StaffLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, token, expiresAt, err := h.service.LoginStaff(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"staff": staffResponse(user),
			"auth":  dto.AuthResponse{Token: token, ExpiresAt: expiresAt},
		},
	})
}

func staffResponse(user *domain.User) dto.StaffResponse {
	return dto.StaffResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Role:      user.Role,
	}
}
