package domain

import "time"

// Priority ranks request urgency. Lower value means more urgent.
type Priority int

const (
	PriorityHigh   Priority = 1
	PriorityMedium Priority = 2
	PriorityLow    Priority = 3
)

// Valid reports whether the priority is one of the known values.
func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// ServiceRequest is the central aggregate: a citizen-submitted request moving
// through the lifecycle under an SLA captured at creation time.
//
// RequestNumber and SLADeadline are immutable once assigned. IsSLABreached is
// monotonic: status changes may set it but never clear it.
type ServiceRequest struct {
	ID              string
	RequestNumber   string
	Title           string
	Description     string
	UserID          string
	CategoryID      string
	StatusID        StatusID
	Address         *string
	Latitude        *float64
	Longitude       *float64
	Priority        Priority
	SubmittedAt     time.Time
	AssignedAt      *time.Time
	ResolvedAt      *time.Time
	ClosedAt        *time.Time
	SLAHours        *int
	SLADeadline     *time.Time
	IsSLABreached   bool
	ResolutionNotes *string
}
