package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civic-request-service/internal/domain"
	"github.com/spec-kit/civic-request-service/internal/events"
	"github.com/spec-kit/civic-request-service/internal/repository"
	apperrors "github.com/spec-kit/civic-request-service/pkg/util"
)

const maxNotesLen = 500

// AssignmentService handles staff assignment of requests. At most one
// assignment per request is active; reassignment deactivates the old rows in
// the same transaction that creates the new one and forces the request into
// the Assigned status.
type AssignmentService struct {
	requests    repository.RequestRepository
	assignments repository.AssignmentRepository
	users       repository.UserRepository
	updates     repository.UpdateRepository
	tx          repository.TxManager
	dispatcher  events.Dispatcher

	now func() time.Time
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	RequestRepo    repository.RequestRepository
	AssignmentRepo repository.AssignmentRepository
	UserRepo       repository.UserRepository
	UpdateRepo     repository.UpdateRepository
	Tx             repository.TxManager
	Dispatcher     events.Dispatcher
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		requests:    deps.RequestRepo,
		assignments: deps.AssignmentRepo,
		users:       deps.UserRepo,
		updates:     deps.UpdateRepo,
		tx:          deps.Tx,
		dispatcher:  deps.Dispatcher,
		now:         time.Now,
	}
}

// Assign reassigns the request to the given staff member. Deactivation of
// previous assignments, the new assignment row, the forced Assigned status and
// the AssignedAt stamp land as one transaction with the request row locked, so
// racing assigns serialize instead of both going active.
func (s *AssignmentService) Assign(ctx context.Context, actorID, requestID, assigneeID string, notes *string) (*domain.RequestAssignment, error) {
	if notes != nil && len(*notes) > maxNotesLen {
		return nil, apperrors.NewValidationError("notes too long", nil)
	}

	var assignment *domain.RequestAssignment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		request, err := s.requests.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("request", map[string]any{"request_id": requestID})
			}
			return err
		}

		assignee, err := s.users.GetByID(ctx, assigneeID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("user", map[string]any{"user_id": assigneeID})
			}
			return err
		}
		if !assignee.Active {
			return apperrors.NewConflict("assignee inactive", map[string]any{"user_id": assigneeID})
		}
		if !assignee.Role.IsStaff() {
			return apperrors.NewConflict("assignee is not staff", map[string]any{"user_id": assigneeID})
		}

		if _, err := s.assignments.DeactivateForRequest(ctx, request.ID); err != nil {
			return err
		}

		now := s.now()
		assignment = &domain.RequestAssignment{
			RequestID:        request.ID,
			AssignedToUserID: assignee.ID,
			AssignedByUserID: &actorID,
			Notes:            notes,
			AssignedAt:       now,
			Active:           true,
		}
		if err := s.assignments.Create(ctx, assignment); err != nil {
			return err
		}

		request.StatusID = domain.StatusAssigned
		request.AssignedAt = &now
		if err := s.requests.Update(ctx, request); err != nil {
			return err
		}

		return s.updates.Create(ctx, &domain.RequestUpdate{
			RequestID:  request.ID,
			UserID:     actorID,
			Comment:    assignmentComment(assignee, notes),
			UpdateType: domain.UpdateTypeAssignment,
			Internal:   true,
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, actorID, assignment)
	return assignment, nil
}

// ListAssignments returns the assignment history for a request, oldest first.
func (s *AssignmentService) ListAssignments(ctx context.Context, requestID string) ([]domain.RequestAssignment, error) {
	assignments, err := s.assignments.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return assignments, nil
}

// ActiveAssignment returns the current assignment, or nil when unassigned.
func (s *AssignmentService) ActiveAssignment(ctx context.Context, requestID string) (*domain.RequestAssignment, error) {
	active, err := s.assignments.ListActiveByRequest(ctx, requestID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(active) == 0 {
		return nil, nil
	}
	return &active[len(active)-1], nil
}

func assignmentComment(assignee *domain.User, notes *string) string {
	comment := fmt.Sprintf("assigned to %s", assignee.FullName())
	if notes != nil && strings.TrimSpace(*notes) != "" {
		comment += ": " + strings.TrimSpace(*notes)
	}
	return comment
}

func (s *AssignmentService) publish(ctx context.Context, actorID string, assignment *domain.RequestAssignment) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventRequestAssigned,
		RequestID: assignment.RequestID,
		Actor:     events.Actor{UserID: &actorID},
		Timestamp: s.now(),
		Payload: events.RequestAssignedPayload{
			AssignedToUserID: assignment.AssignedToUserID,
			AssignedByUserID: assignment.AssignedByUserID,
		},
	})
}
