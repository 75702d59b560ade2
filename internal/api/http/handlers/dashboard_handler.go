package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-request-service/internal/service"
)

// DashboardHandler serves the public dashboard and SLA report.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: dashboardService}
}

// PublicDashboard GET /dashboard/public.
func (h *DashboardHandler) PublicDashboard(c *fiber.Ctx) error {
	stats, err := h.service.PublicDashboard(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// SLAReport GET /dashboard/sla.
func (h *DashboardHandler) SLAReport(c *fiber.Ctx) error {
	report, err := h.service.SLAReport(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}
