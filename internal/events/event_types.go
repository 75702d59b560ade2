package events

import (
	"time"

	"github.com/spec-kit/civic-request-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestSubmitted     EventType = "request_submitted"
	EventRequestStatusChanged EventType = "request_status_changed"
	EventRequestAssigned      EventType = "request_assigned"
	EventRequestCommentAdded  EventType = "request_comment_added"
)

// Actor identifies who triggered an event. A nil UserID means the system.
type Actor struct {
	UserID *string `json:"user_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID            string      `json:"id"`
	Type          EventType   `json:"type"`
	RequestID     string      `json:"request_id"`
	RequestNumber string      `json:"request_number"`
	Actor         Actor       `json:"actor"`
	Timestamp     time.Time   `json:"timestamp"`
	Payload       interface{} `json:"payload"`
}

// RequestSubmittedPayload payload.
type RequestSubmittedPayload struct {
	CategoryID   string          `json:"category_id"`
	Priority     domain.Priority `json:"priority"`
	Title        string          `json:"title"`
	CitizenEmail string          `json:"citizen_email"`
}

// RequestStatusChangedPayload payload.
type RequestStatusChangedPayload struct {
	OldStatus    domain.StatusID `json:"old_status"`
	NewStatus    domain.StatusID `json:"new_status"`
	Comment      string          `json:"comment,omitempty"`
	Title        string          `json:"title"`
	CitizenEmail string          `json:"citizen_email"`
}

// RequestAssignedPayload payload.
type RequestAssignedPayload struct {
	AssignedToUserID string  `json:"assigned_to_user_id"`
	AssignedByUserID *string `json:"assigned_by_user_id,omitempty"`
}

// RequestCommentAddedPayload payload.
type RequestCommentAddedPayload struct {
	UpdateID    string `json:"update_id"`
	Internal    bool   `json:"internal"`
	BodyPreview string `json:"body_preview"`
}
