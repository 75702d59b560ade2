package dto

import (
	"time"

	"github.com/spec-kit/civic-request-service/internal/domain"
)

// CreateRequestRequest payload for the public submission endpoint.
type CreateRequestRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	CategoryID  string   `json:"category_id"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Email       string   `json:"email"`
	Phone       *string  `json:"phone"`
	Address     *string  `json:"address"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Priority    int      `json:"priority"`
}

// RequestSummary is the flat list/receipt projection.
type RequestSummary struct {
	ID            string          `json:"id"`
	RequestNumber string          `json:"request_number"`
	Title         string          `json:"title"`
	CategoryID    string          `json:"category_id"`
	StatusID      domain.StatusID `json:"status_id"`
	Status        string          `json:"status"`
	Priority      domain.Priority `json:"priority"`
	SubmittedAt   time.Time       `json:"submitted_at"`
	SLADeadline   *time.Time      `json:"sla_deadline"`
	IsSLABreached bool            `json:"is_sla_breached"`
}

// RequestDetailResponse provides full request info with related rows.
type RequestDetailResponse struct {
	ID              string               `json:"id"`
	RequestNumber   string               `json:"request_number"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	Category        *CategoryResponse    `json:"category"`
	Citizen         *CitizenResponse     `json:"citizen,omitempty"`
	StatusID        domain.StatusID      `json:"status_id"`
	Status          string               `json:"status"`
	BadgeColor      string               `json:"badge_color"`
	Address         *string              `json:"address"`
	Latitude        *float64             `json:"latitude"`
	Longitude       *float64             `json:"longitude"`
	Priority        domain.Priority      `json:"priority"`
	SubmittedAt     time.Time            `json:"submitted_at"`
	AssignedAt      *time.Time           `json:"assigned_at"`
	ResolvedAt      *time.Time           `json:"resolved_at"`
	ClosedAt        *time.Time           `json:"closed_at"`
	SLAHours        *int                 `json:"sla_hours"`
	SLADeadline     *time.Time           `json:"sla_deadline"`
	IsSLABreached   bool                 `json:"is_sla_breached"`
	ResolutionNotes *string              `json:"resolution_notes,omitempty"`
	Updates         []UpdateResponse     `json:"updates"`
	Assignments     []AssignmentResponse `json:"assignments,omitempty"`
}

// CategoryResponse metadata.
type CategoryResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     *string `json:"description"`
	DefaultSLAHours *int    `json:"default_sla_hours"`
}

// CitizenResponse exposes submitter contact details to staff.
type CitizenResponse struct {
	ID        string  `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone"`
}

// UpdateResponse represents an audit trail entry.
type UpdateResponse struct {
	ID         string            `json:"id"`
	UserID     string            `json:"user_id"`
	Comment    string            `json:"comment"`
	UpdateType domain.UpdateType `json:"update_type"`
	Internal   bool              `json:"internal"`
	CreatedAt  time.Time         `json:"created_at"`
}

// AssignmentResponse represents an assignment row.
type AssignmentResponse struct {
	ID               string     `json:"id"`
	AssignedToUserID string     `json:"assigned_to_user_id"`
	AssignedByUserID *string    `json:"assigned_by_user_id"`
	Notes            *string    `json:"notes"`
	AssignedAt       time.Time  `json:"assigned_at"`
	CompletedAt      *time.Time `json:"completed_at"`
	Active           bool       `json:"active"`
}
