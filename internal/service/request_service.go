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

const (
	maxTitleLen       = 200
	maxDescriptionLen = 2000
	maxCommentLen     = 2000
)

// RequestService coordinates the request lifecycle: creation, status changes
// and the audit trail.
type RequestService struct {
	requests   repository.RequestRepository
	users      repository.UserRepository
	categories repository.CategoryRepository
	updates    repository.UpdateRepository
	tx         repository.TxManager
	dispatcher events.Dispatcher
	policy     TransitionPolicy

	fallbackSLAHours int
	now              func() time.Time
}

// RequestDependencies bundles collaborators for the request service.
type RequestDependencies struct {
	RequestRepo  repository.RequestRepository
	UserRepo     repository.UserRepository
	CategoryRepo repository.CategoryRepository
	UpdateRepo   repository.UpdateRepository
	Tx           repository.TxManager
	Dispatcher   events.Dispatcher
	Policy       TransitionPolicy
	// FallbackSLAHours applies when the category carries no default.
	FallbackSLAHours int
}

// RequestCreateInput describes a citizen submission.
type RequestCreateInput struct {
	Title       string
	Description string
	CategoryID  string
	FirstName   string
	LastName    string
	Email       string
	Phone       *string
	Address     *string
	Latitude    *float64
	Longitude   *float64
	Priority    domain.Priority
}

// RequestDetail is a flat read projection of a request with its related rows.
type RequestDetail struct {
	Request     domain.ServiceRequest
	Citizen     *domain.User
	Category    *domain.Category
	Updates     []domain.RequestUpdate
	Assignments []domain.RequestAssignment
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	policy := deps.Policy
	if policy == nil {
		policy = PermissivePolicy{}
	}
	fallback := deps.FallbackSLAHours
	if fallback <= 0 {
		fallback = 72
	}
	return &RequestService{
		requests:         deps.RequestRepo,
		users:            deps.UserRepo,
		categories:       deps.CategoryRepo,
		updates:          deps.UpdateRepo,
		tx:               deps.Tx,
		dispatcher:       deps.Dispatcher,
		policy:           policy,
		fallbackSLAHours: fallback,
		now:              time.Now,
	}
}

// CreateRequest validates and persists a new submission, resolving the
// citizen account by email, and notifies once persisted.
func (s *RequestService) CreateRequest(ctx context.Context, input RequestCreateInput) (*domain.ServiceRequest, error) {
	if err := validateCreateInput(&input); err != nil {
		return nil, err
	}

	category, err := s.categories.GetByID(ctx, input.CategoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": input.CategoryID})
		}
		return nil, apperrors.MapError(err)
	}

	now := s.now()
	slaHours := s.fallbackSLAHours
	if category.DefaultSLAHours != nil {
		slaHours = *category.DefaultSLAHours
	}
	deadline := now.Add(time.Duration(slaHours) * time.Hour)

	request := &domain.ServiceRequest{
		RequestNumber: newRequestNumber(now),
		Title:         strings.TrimSpace(input.Title),
		Description:   strings.TrimSpace(input.Description),
		CategoryID:    category.ID,
		StatusID:      domain.StatusSubmitted,
		Address:       input.Address,
		Latitude:      input.Latitude,
		Longitude:     input.Longitude,
		Priority:      input.Priority,
		SubmittedAt:   now,
		SLAHours:      &slaHours,
		SLADeadline:   &deadline,
		IsSLABreached: false,
	}

	var citizen *domain.User
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		citizen, err = s.resolveCitizen(ctx, input)
		if err != nil {
			return err
		}
		request.UserID = citizen.ID
		return s.requests.Create(ctx, request)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:          events.EventRequestSubmitted,
		RequestID:     request.ID,
		RequestNumber: request.RequestNumber,
		Actor:         events.Actor{UserID: &citizen.ID},
		Payload: events.RequestSubmittedPayload{
			CategoryID:   request.CategoryID,
			Priority:     request.Priority,
			Title:        request.Title,
			CitizenEmail: citizen.Email,
		},
	})
	return request, nil
}

// ChangeStatus moves a request to the target status under the configured
// transition policy. Timestamp stamping, breach detection and the optional
// audit comment land atomically; the notification afterwards is best-effort.
func (s *RequestService) ChangeStatus(ctx context.Context, actorID, requestID string, newStatus domain.StatusID, comment string, resolutionNotes *string) (*domain.ServiceRequest, error) {
	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status_id": newStatus})
	}
	comment = strings.TrimSpace(comment)
	if len(comment) > maxCommentLen {
		return nil, apperrors.NewValidationError("comment too long", nil)
	}
	if resolutionNotes != nil && len(*resolutionNotes) > maxNotesLen {
		return nil, apperrors.NewValidationError("resolution notes too long", nil)
	}

	var (
		request   *domain.ServiceRequest
		citizen   *domain.User
		oldStatus domain.StatusID
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		request, err = s.requests.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("request", map[string]any{"request_id": requestID})
			}
			return err
		}
		if !s.policy.Allowed(request.StatusID, newStatus) {
			return apperrors.NewConflict("status transition not allowed", map[string]any{
				"from": request.StatusID,
				"to":   newStatus,
			})
		}

		citizen, err = s.users.GetByID(ctx, request.UserID)
		if err != nil {
			return err
		}

		now := s.now()
		oldStatus = request.StatusID
		switch newStatus {
		case domain.StatusAssigned:
			request.AssignedAt = &now
		case domain.StatusResolved:
			request.ResolvedAt = &now
			if resolutionNotes != nil && strings.TrimSpace(*resolutionNotes) != "" {
				notes := strings.TrimSpace(*resolutionNotes)
				request.ResolutionNotes = &notes
			}
		case domain.StatusClosed:
			request.ClosedAt = &now
		}

		// Breach is only stamped while the request stays unsettled; it is
		// never cleared once set.
		if request.SLADeadline != nil && now.After(*request.SLADeadline) &&
			newStatus != domain.StatusResolved && newStatus != domain.StatusClosed {
			request.IsSLABreached = true
		}

		request.StatusID = newStatus
		if err := s.requests.Update(ctx, request); err != nil {
			return err
		}

		if comment != "" {
			return s.updates.Create(ctx, &domain.RequestUpdate{
				RequestID:  request.ID,
				UserID:     actorID,
				Comment:    comment,
				UpdateType: domain.UpdateTypeStatusChange,
				Internal:   false,
				CreatedAt:  now,
			})
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:          events.EventRequestStatusChanged,
		RequestID:     request.ID,
		RequestNumber: request.RequestNumber,
		Actor:         events.Actor{UserID: &actorID},
		Payload: events.RequestStatusChangedPayload{
			OldStatus:    oldStatus,
			NewStatus:    newStatus,
			Comment:      comment,
			Title:        request.Title,
			CitizenEmail: citizen.Email,
		},
	})
	return request, nil
}

// AddComment appends a comment to the audit trail.
func (s *RequestService) AddComment(ctx context.Context, actorID, requestID, text string, internal bool) (*domain.RequestUpdate, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("comment required", nil)
	}
	if len(text) > maxCommentLen {
		return nil, apperrors.NewValidationError("comment too long", nil)
	}

	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("request", map[string]any{"request_id": requestID})
		}
		return nil, apperrors.MapError(err)
	}

	update := &domain.RequestUpdate{
		RequestID:  request.ID,
		UserID:     actorID,
		Comment:    text,
		UpdateType: domain.UpdateTypeComment,
		Internal:   internal,
		CreatedAt:  s.now(),
	}
	if err := s.updates.Create(ctx, update); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:          events.EventRequestCommentAdded,
		RequestID:     request.ID,
		RequestNumber: request.RequestNumber,
		Actor:         events.Actor{UserID: &actorID},
		Payload: events.RequestCommentAddedPayload{
			UpdateID:    update.ID,
			Internal:    update.Internal,
			BodyPreview: stringPreview(update.Comment, 120),
		},
	})
	return update, nil
}

// ListUpdates returns the audit trail for a request, oldest first.
func (s *RequestService) ListUpdates(ctx context.Context, requestID string, includeInternal bool) ([]domain.RequestUpdate, error) {
	updates, err := s.updates.ListByRequest(ctx, requestID, includeInternal)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return updates, nil
}

// TrackByNumber returns the citizen-facing projection for a public request
// number: internal audit entries are filtered out.
func (s *RequestService) TrackByNumber(ctx context.Context, requestNumber string) (*RequestDetail, error) {
	requestNumber = strings.TrimSpace(requestNumber)
	if requestNumber == "" {
		return nil, apperrors.NewValidationError("request number required", nil)
	}
	request, err := s.requests.GetByNumber(ctx, requestNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("request", map[string]any{"request_number": requestNumber})
		}
		return nil, apperrors.MapError(err)
	}
	return s.buildDetail(ctx, request, false)
}

// GetDetail returns the staff projection including internal entries.
func (s *RequestService) GetDetail(ctx context.Context, requestID string) (*RequestDetail, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("request", map[string]any{"request_id": requestID})
		}
		return nil, apperrors.MapError(err)
	}
	return s.buildDetail(ctx, request, true)
}

// ListRequests returns requests for the admin overview, newest first.
func (s *RequestService) ListRequests(ctx context.Context, filter repository.RequestFilter) ([]domain.ServiceRequest, error) {
	requests, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return requests, nil
}

func (s *RequestService) buildDetail(ctx context.Context, request *domain.ServiceRequest, includeInternal bool) (*RequestDetail, error) {
	citizen, err := s.users.GetByID(ctx, request.UserID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	category, err := s.categories.GetByID(ctx, request.CategoryID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	updates, err := s.updates.ListByRequest(ctx, request.ID, includeInternal)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &RequestDetail{
		Request:  *request,
		Citizen:  citizen,
		Category: category,
		Updates:  updates,
	}, nil
}

// resolveCitizen finds or creates the submitting user by email. Non-empty
// incoming contact fields overwrite stored ones; empty fields never do.
func (s *RequestService) resolveCitizen(ctx context.Context, input RequestCreateInput) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		user = &domain.User{
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Email:     input.Email,
			Phone:     input.Phone,
			Role:      domain.RoleCitizen,
			Active:    true,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}

	changed := false
	if input.FirstName != "" && user.FirstName != input.FirstName {
		user.FirstName = input.FirstName
		changed = true
	}
	if input.LastName != "" && user.LastName != input.LastName {
		user.LastName = input.LastName
		changed = true
	}
	if input.Phone != nil && *input.Phone != "" && (user.Phone == nil || *user.Phone != *input.Phone) {
		user.Phone = input.Phone
		changed = true
	}
	if changed {
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func validateCreateInput(input *RequestCreateInput) error {
	details := map[string]any{}
	if strings.TrimSpace(input.Title) == "" {
		details["title"] = "required"
	} else if len(input.Title) > maxTitleLen {
		details["title"] = "too long"
	}
	if strings.TrimSpace(input.Description) == "" {
		details["description"] = "required"
	} else if len(input.Description) > maxDescriptionLen {
		details["description"] = "too long"
	}
	if strings.TrimSpace(input.Email) == "" {
		details["email"] = "required"
	}
	if strings.TrimSpace(input.FirstName) == "" {
		details["first_name"] = "required"
	}
	if strings.TrimSpace(input.LastName) == "" {
		details["last_name"] = "required"
	}
	if strings.TrimSpace(input.CategoryID) == "" {
		details["category_id"] = "required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid request submission", details)
	}
	if !input.Priority.Valid() {
		input.Priority = domain.PriorityLow
	}
	return nil
}

// newRequestNumber builds the durable public identifier, e.g.
// REQ-20240101-3F2A9C1B. UUID entropy keeps the 8 hex chars collision-free in
// practice; the unique index is the backstop.
func newRequestNumber(now time.Time) string {
	entropy := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("REQ-%s-%s", now.Format("20060102"), entropy)
}

func (s *RequestService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
