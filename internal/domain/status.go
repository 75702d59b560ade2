package domain

// StatusID identifies a request lifecycle state. The set is closed; the rows
// in the request_statuses table exist for joins and carry the same ids.
type StatusID int

const (
	StatusSubmitted  StatusID = 1
	StatusInProgress StatusID = 2
	StatusAssigned   StatusID = 3
	StatusResolved   StatusID = 4
	StatusClosed     StatusID = 5
	StatusRejected   StatusID = 6
)

// RequestStatus carries the display metadata for a lifecycle state.
type RequestStatus struct {
	ID           StatusID
	Name         string
	Description  string
	BadgeColor   string
	DisplayOrder int
	Active       bool
}

var statusTable = []RequestStatus{
	{ID: StatusSubmitted, Name: "Submitted", Description: "Request has been submitted", BadgeColor: "secondary", DisplayOrder: 1, Active: true},
	{ID: StatusInProgress, Name: "InProgress", Description: "Request is being reviewed", BadgeColor: "primary", DisplayOrder: 2, Active: true},
	{ID: StatusAssigned, Name: "Assigned", Description: "Request has been assigned", BadgeColor: "info", DisplayOrder: 3, Active: true},
	{ID: StatusResolved, Name: "Resolved", Description: "Request has been resolved", BadgeColor: "success", DisplayOrder: 4, Active: true},
	{ID: StatusClosed, Name: "Closed", Description: "Request is closed", BadgeColor: "dark", DisplayOrder: 5, Active: true},
	{ID: StatusRejected, Name: "Rejected", Description: "Request has been rejected", BadgeColor: "danger", DisplayOrder: 6, Active: true},
}

// Statuses returns the active statuses in display order.
func Statuses() []RequestStatus {
	out := make([]RequestStatus, 0, len(statusTable))
	for _, s := range statusTable {
		if s.Active {
			out = append(out, s)
		}
	}
	return out
}

// StatusByID resolves a status id to its metadata.
func StatusByID(id StatusID) (RequestStatus, bool) {
	for _, s := range statusTable {
		if s.ID == id {
			return s, true
		}
	}
	return RequestStatus{}, false
}

// Valid reports whether the id belongs to the closed status set.
func (s StatusID) Valid() bool {
	_, ok := StatusByID(s)
	return ok
}

// Name returns the status display name, or empty for unknown ids.
func (s StatusID) Name() string {
	status, ok := StatusByID(s)
	if !ok {
		return ""
	}
	return status.Name
}
