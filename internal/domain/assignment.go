package domain

import "time"

// RequestAssignment records a staff assignment. At most one assignment per
// request is active at any time; reassignment deactivates the previous rows
// rather than deleting them.
type RequestAssignment struct {
	ID               string
	RequestID        string
	AssignedToUserID string
	AssignedByUserID *string
	Notes            *string
	AssignedAt       time.Time
	CompletedAt      *time.Time
	Active           bool
}
