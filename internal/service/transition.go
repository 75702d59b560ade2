package service

import "github.com/spec-kit/civic-request-service/internal/domain"

// TransitionPolicy decides whether a status change is allowed.
type TransitionPolicy interface {
	Allowed(from, to domain.StatusID) bool
}

// PermissivePolicy mirrors the legacy portal behavior: any known status may be
// set from any other, including backwards moves like Closed to Submitted.
type PermissivePolicy struct{}

func (PermissivePolicy) Allowed(_, to domain.StatusID) bool {
	return to.Valid()
}

// StrictPolicy enforces the forward-only graph:
// Submitted -> InProgress -> Assigned -> {Resolved, Rejected}, Resolved -> Closed.
// Submitted -> Assigned is also allowed because assignment forces that status
// without an intermediate review step.
type StrictPolicy struct{}

var strictGraph = map[domain.StatusID][]domain.StatusID{
	domain.StatusSubmitted:  {domain.StatusInProgress, domain.StatusAssigned},
	domain.StatusInProgress: {domain.StatusAssigned},
	domain.StatusAssigned:   {domain.StatusResolved, domain.StatusRejected},
	domain.StatusResolved:   {domain.StatusClosed},
	domain.StatusClosed:     {},
	domain.StatusRejected:   {},
}

func (StrictPolicy) Allowed(from, to domain.StatusID) bool {
	for _, candidate := range strictGraph[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// PolicyFromConfig selects the configured transition policy.
func PolicyFromConfig(strict bool) TransitionPolicy {
	if strict {
		return StrictPolicy{}
	}
	return PermissivePolicy{}
}
