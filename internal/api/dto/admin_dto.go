package dto

// ChangeStatusRequest payload for POST /admin/requests/:id/status.
type ChangeStatusRequest struct {
	StatusID        int     `json:"status_id"`
	Comment         string  `json:"comment"`
	ResolutionNotes *string `json:"resolution_notes"`
}

// AssignRequest payload for POST /admin/requests/:id/assign.
type AssignRequest struct {
	AssigneeID string  `json:"assignee_id"`
	Notes      *string `json:"notes"`
}

// AddCommentRequest payload for POST /admin/requests/:id/comments.
type AddCommentRequest struct {
	Comment  string `json:"comment"`
	Internal bool   `json:"internal"`
}
