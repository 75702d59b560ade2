package domain

import "time"

// UpdateType tags what kind of audit entry a RequestUpdate is.
type UpdateType string

const (
	UpdateTypeStatusChange UpdateType = "STATUS_CHANGE"
	UpdateTypeComment      UpdateType = "COMMENT"
	UpdateTypeAssignment   UpdateType = "ASSIGNMENT"
)

// RequestUpdate is an append-only audit trail entry. Internal entries are
// hidden from the citizen-facing view.
type RequestUpdate struct {
	ID         string
	RequestID  string
	UserID     string
	Comment    string
	UpdateType UpdateType
	Internal   bool
	CreatedAt  time.Time
}
