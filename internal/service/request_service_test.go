package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-request-service/internal/domain"
	"github.com/spec-kit/civic-request-service/internal/events"
	apperrors "github.com/spec-kit/civic-request-service/pkg/util"
)

var requestNumberPattern = regexp.MustCompile(`^REQ-\d{8}-[0-9A-F]{8}$`)

type requestServiceEnv struct {
	service    *RequestService
	requests   *fakeRequestRepo
	users      *fakeUserRepo
	categories *fakeCategoryRepo
	updates    *fakeUpdateRepo
	dispatcher *recordingDispatcher
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func newRequestServiceEnv(t *testing.T, policy TransitionPolicy) *requestServiceEnv {
	t.Helper()
	env := &requestServiceEnv{
		requests:   newFakeRequestRepo(),
		users:      newFakeUserRepo(),
		updates:    newFakeUpdateRepo(),
		dispatcher: &recordingDispatcher{},
	}
	env.categories = newFakeCategoryRepo(
		domain.Category{ID: "cat-roads", Name: "Roads & Infrastructure", DefaultSLAHours: intPtr(24), Active: true},
		domain.Category{ID: "cat-parks", Name: "Parks & Recreation", Active: true},
	)
	env.service = NewRequestService(RequestDependencies{
		RequestRepo:      env.requests,
		UserRepo:         env.users,
		CategoryRepo:     env.categories,
		UpdateRepo:       env.updates,
		Tx:               fakeTx{},
		Dispatcher:       env.dispatcher,
		Policy:           policy,
		FallbackSLAHours: 72,
	})
	return env
}

func (env *requestServiceEnv) setClock(at time.Time) {
	env.service.now = func() time.Time { return at }
}

func validCreateInput() RequestCreateInput {
	return RequestCreateInput{
		Title:       "Pothole on Main St",
		Description: "Large pothole near the intersection",
		CategoryID:  "cat-roads",
		FirstName:   "Jane",
		LastName:    "Doe",
		Email:       "jane@example.com",
		Priority:    domain.PriorityMedium,
	}
}

func TestCreateRequestAssignsNumberAndDeadline(t *testing.T) {
	env := newRequestServiceEnv(t, nil)
	submittedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	env.setClock(submittedAt)

	request, err := env.service.CreateRequest(context.Background(), validCreateInput())
	require.NoError(t, err)

	assert.Regexp(t, requestNumberPattern, request.RequestNumber)
	assert.Equal(t, "REQ-20240101", request.RequestNumber[:12])
	assert.Equal(t, domain.StatusSubmitted, request.StatusID)
	assert.Equal(t, submittedAt, request.SubmittedAt)
	require.NotNil(t, request.SLAHours)
	assert.Equal(t, 24, *request.SLAHours)
	require.NotNil(t, request.SLADeadline)
	assert.Equal(t, submittedAt.Add(24*time.Hour), *request.SLADeadline)
	assert.False(t, request.IsSLABreached)

	published := env.dispatcher.published()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventRequestSubmitted, published[0].Type)
	payload, ok := published[0].Payload.(events.RequestSubmittedPayload)
	require.True(t, ok)
	assert.Equal(t, "jane@example.com", payload.CitizenEmail)
}

func TestCreateRequestFallbackSLAWhenCategoryHasNone(t *testing.T) {
	env := newRequestServiceEnv(t, nil)
	submittedAt := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	env.setClock(submittedAt)

	input := validCreateInput()
	input.CategoryID = "cat-parks"
	request, err := env.service.CreateRequest(context.Background(), input)
	require.NoError(t, err)

	require.NotNil(t, request.SLAHours)
	assert.Equal(t, 72, *request.SLAHours)
	require.NotNil(t, request.SLADeadline)
	assert.Equal(t, submittedAt.Add(72*time.Hour), *request.SLADeadline)
}

func TestCreateRequestResolvesCitizenByEmail(t *testing.T) {
	env := newRequestServiceEnv(t, nil)
	env.setClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	first, err := env.service.CreateRequest(context.Background(), validCreateInput())
	require.NoError(t, err)

	// Second submission with the same email reuses the account and updates
	// the non-empty contact fields.
	input := validCreateInput()
	input.FirstName = "Janet"
	input.Phone = strPtr("555-0100")
	second, err := env.service.CreateRequest(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first.UserID, second.UserID)
	user, err := env.users.GetByID(context.Background(), second.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Janet", user.FirstName)
	require.NotNil(t, user.Phone)
	assert.Equal(t, "555-0100", *user.Phone)
	assert.Equal(t, domain.RoleCitizen, user.Role)
}

func TestCreateRequestValidation(t *testing.T) {
	env := newRequestServiceEnv(t, nil)

	input := validCreateInput()
	input.Title = ""
	input.Email = "  "
	_, err := env.service.CreateRequest(context.Background(), input)
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeValidationFailed, domainErr.Code)
	assert.Contains(t, domainErr.Details, "title")
	assert.Contains(t, domainErr.Details, "email")
}

func TestCreateRequestUnknownCategory(t *testing.T) {
	env := newRequestServiceEnv(t, nil)

	input := validCreateInput()
	input.CategoryID = "missing"
	_, err := env.service.CreateRequest(context.Background(), input)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeNotFound, domainErr.Code)
}

func TestCreateRequestInvalidPriorityDefaultsLow(t *testing.T) {
	env := newRequestServiceEnv(t, nil)
	env.setClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	input := validCreateInput()
	input.Priority = domain.Priority(9)
	request, err := env.service.CreateRequest(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityLow, request.Priority)
}

func TestChangeStatusStampsTimestampsAndBreach(t *testing.T) {
	env := newRequestServiceEnv(t, nil)
	submittedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	env.setClock(submittedAt)

	request, err := env.service.CreateRequest(context.Background(), validCreateInput())
	require.NoError(t, err)

	// Deadline is 2024-01-02; two days later the request is overdue.
	env.setClock(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	updated, err := env.service.ChangeStatus(context.Background(), "staff-1", request.ID, domain.StatusInProgress, "looking into it", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, updated.StatusID)
	assert.True(t, updated.IsSLABreached)

	// Moving to a settled state keeps the breach flag and stamps ResolvedAt.
	resolvedAt := time.Date(2024, 1, 4, 12, 0, 0, 0, time.UTC)
	env.setClock(resolvedAt)
	notes := "Patched the road surface"
	resolved, err := env.service.ChangeStatus(context.Background(), "staff-1", request.ID, domain.StatusResolved, "", &notes)
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, resolvedAt, *resolved.ResolvedAt)
	assert.True(t, resolved.IsSLABreached)
	require.NotNil(t, resolved.ResolutionNotes)
	assert.Equal(t, "Patched the road surface", *resolved.ResolutionNotes)
}

func TestChangeStatusTerminalTargetDoesNotStampBreach(t *testing.T) {
	env := newRequestServiceEnv(t, nil)
	submittedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	env.setClock(submittedAt)

	request, err := env.service.CreateRequest(context.Background(), validCreateInput())
	require.NoError(t, err)

	// Resolving after the deadline does not newly mark the breach: the rule
	// only fires while the request stays unsettled.
	env.setClock(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	resolved, err := env.service.ChangeStatus(context.Background(), "staff-1", request.ID, domain.StatusResolved, "", nil)
	require.NoError(t, err)
	assert.False(t, resolved.IsSLABreached)
	require.NotNil(t, resolved.ResolvedAt)
}

func TestChangeStatusWritesAuditEntryAndEvent(t *testing.T) {
	env := newRequestServiceEnv(t, nil)
	env.setClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	request, err := env.service.CreateRequest(context.Background(), validCreateInput())
	require.NoError(t, err)

	_, err = env.service.ChangeStatus(context.Background(), "staff-1", request.ID, domain.StatusInProgress, "triaged", nil)
	require.NoError(t, err)

	updates, err := env.updates.ListByRequest(context.Background(), request.ID, true)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, domain.UpdateTypeStatusChange, updates[0].UpdateType)
	assert.Equal(t, "staff-1", updates[0].UserID)
	assert.Equal(t, "triaged", updates[0].Comment)

	published := env.dispatcher.published()
	require.Len(t, published, 2)
	assert.Equal(t, events.EventRequestStatusChanged, published[1].Type)
	payload, ok := published[1].Payload.(events.RequestStatusChangedPayload)
	require.True(t, ok)
	assert.Equal(t, domain.StatusSubmitted, payload.OldStatus)
	assert.Equal(t, domain.StatusInProgress, payload.NewStatus)
}

func TestChangeStatusNoCommentSkipsAuditEntry(t *testing.T) {
	env := newRequestServiceEnv(t, nil)
	env.setClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	request, err := env.service.CreateRequest(context.Background(), validCreateInput())
	require.NoError(t, err)

	_, err = env.service.ChangeStatus(context.Background(), "staff-1", request.ID, domain.StatusInProgress, "   ", nil)
	require.NoError(t, err)

	updates, err := env.updates.ListByRequest(context.Background(), request.ID, true)
	require.NoError(t, err)
	assert.Empty(t, updates)
}

func TestChangeStatusUnknownRequest(t *testing.T) {
	env := newRequestServiceEnv(t, nil)
	_, err := env.service.ChangeStatus(context.Background(), "staff-1", "missing", domain.StatusInProgress, "", nil)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeNotFound, domainErr.Code)
}

func TestChangeStatusInvalidStatus(t *testing.T) {
	env := newRequestServiceEnv(t, nil)
	_, err := env.service.ChangeStatus(context.Background(), "staff-1", "req-1", domain.StatusID(42), "", nil)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeValidationFailed, domainErr.Code)
}

func TestChangeStatusRejectedByStrictPolicy(t *testing.T) {
	env := newRequestServiceEnv(t, StrictPolicy{})
	env.setClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	request, err := env.service.CreateRequest(context.Background(), validCreateInput())
	require.NoError(t, err)

	_, err = env.service.ChangeStatus(context.Background(), "staff-1", request.ID, domain.StatusClosed, "", nil)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeConflict, domainErr.Code)

	// The request stays untouched.
	current, err := env.requests.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, current.StatusID)
}

func TestAddCommentAndTrackFiltersInternal(t *testing.T) {
	env := newRequestServiceEnv(t, nil)
	env.setClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	request, err := env.service.CreateRequest(context.Background(), validCreateInput())
	require.NoError(t, err)

	_, err = env.service.AddComment(context.Background(), "staff-1", request.ID, "public note", false)
	require.NoError(t, err)
	_, err = env.service.AddComment(context.Background(), "staff-1", request.ID, "internal note", true)
	require.NoError(t, err)

	tracked, err := env.service.TrackByNumber(context.Background(), request.RequestNumber)
	require.NoError(t, err)
	require.Len(t, tracked.Updates, 1)
	assert.Equal(t, "public note", tracked.Updates[0].Comment)

	detail, err := env.service.GetDetail(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Updates, 2)
}

func TestAddCommentValidation(t *testing.T) {
	env := newRequestServiceEnv(t, nil)
	_, err := env.service.AddComment(context.Background(), "staff-1", "req-1", "   ", false)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeValidationFailed, domainErr.Code)
}

func TestTrackByNumberUnknown(t *testing.T) {
	env := newRequestServiceEnv(t, nil)
	_, err := env.service.TrackByNumber(context.Background(), "REQ-20240101-DEADBEEF")
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeNotFound, domainErr.Code)
}

func TestRequestNumbersAreUnique(t *testing.T) {
	seen := map[string]bool{}
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 200; i++ {
		number := newRequestNumber(at)
		require.Regexp(t, requestNumberPattern, number)
		require.False(t, seen[number], "duplicate request number %s", number)
		seen[number] = true
	}
}
