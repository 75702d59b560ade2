package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civic-request-service/internal/domain"
	"github.com/spec-kit/civic-request-service/internal/events"
	"github.com/spec-kit/civic-request-service/internal/repository"
)

// fakeTx runs the function directly; the in-memory fakes have no transactions.
type fakeTx struct{}

func (fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ListActiveStaff(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.User{}
	for _, user := range r.users {
		if user.Active && user.Role.IsStaff() {
			out = append(out, *user)
		}
	}
	return out, nil
}

// add seeds a user directly, bypassing Create's id assignment.
func (r *fakeUserRepo) add(user domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = &user
}

type fakeCategoryRepo struct {
	categories map[string]*domain.Category
}

func newFakeCategoryRepo(categories ...domain.Category) *fakeCategoryRepo {
	repo := &fakeCategoryRepo{categories: map[string]*domain.Category{}}
	for i := range categories {
		repo.categories[categories[i].ID] = &categories[i]
	}
	return repo
}

func (r *fakeCategoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	category, ok := r.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *category
	return &clone, nil
}

func (r *fakeCategoryRepo) ListActive(_ context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	for _, category := range r.categories {
		if category.Active {
			out = append(out, *category)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakeRequestRepo struct {
	mu       sync.Mutex
	seq      int
	requests map[string]*domain.ServiceRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: map[string]*domain.ServiceRequest{}}
}

func (r *fakeRequestRepo) Create(_ context.Context, request *domain.ServiceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.requests {
		if existing.RequestNumber == request.RequestNumber {
			return fmt.Errorf("duplicate request number %s", request.RequestNumber)
		}
	}
	r.seq++
	request.ID = fmt.Sprintf("req-%d", r.seq)
	clone := *request
	r.requests[request.ID] = &clone
	return nil
}

func (r *fakeRequestRepo) Update(_ context.Context, request *domain.ServiceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[request.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *request
	r.requests[request.ID] = &clone
	return nil
}

func (r *fakeRequestRepo) GetByID(_ context.Context, id string) (*domain.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *request
	return &clone, nil
}

func (r *fakeRequestRepo) GetByNumber(_ context.Context, number string) (*domain.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, request := range r.requests {
		if request.RequestNumber == number {
			clone := *request
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeRequestRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeRequestRepo) List(_ context.Context, filter repository.RequestFilter) ([]domain.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.ServiceRequest{}
	for _, request := range r.requests {
		if filter.StatusID != nil && request.StatusID != *filter.StatusID {
			continue
		}
		if filter.CategoryID != nil && request.CategoryID != *filter.CategoryID {
			continue
		}
		if filter.WithSLAOnly && request.SLADeadline == nil {
			continue
		}
		out = append(out, *request)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (r *fakeRequestRepo) Snapshot(_ context.Context) ([]domain.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.ServiceRequest{}
	for _, request := range r.requests {
		out = append(out, *request)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

type fakeAssignmentRepo struct {
	mu          sync.Mutex
	seq         int
	assignments []domain.RequestAssignment
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{}
}

func (r *fakeAssignmentRepo) Create(_ context.Context, assignment *domain.RequestAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	assignment.ID = fmt.Sprintf("assign-%d", r.seq)
	r.assignments = append(r.assignments, *assignment)
	return nil
}

func (r *fakeAssignmentRepo) DeactivateForRequest(_ context.Context, requestID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for i := range r.assignments {
		if r.assignments[i].RequestID == requestID && r.assignments[i].Active {
			r.assignments[i].Active = false
			count++
		}
	}
	return count, nil
}

func (r *fakeAssignmentRepo) ListActiveByRequest(_ context.Context, requestID string) ([]domain.RequestAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.RequestAssignment{}
	for _, a := range r.assignments {
		if a.RequestID == requestID && a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAssignmentRepo) ListByRequest(_ context.Context, requestID string) ([]domain.RequestAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.RequestAssignment{}
	for _, a := range r.assignments {
		if a.RequestID == requestID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeUpdateRepo struct {
	mu      sync.Mutex
	seq     int
	updates []domain.RequestUpdate
}

func newFakeUpdateRepo() *fakeUpdateRepo {
	return &fakeUpdateRepo{}
}

func (r *fakeUpdateRepo) Create(_ context.Context, update *domain.RequestUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	update.ID = fmt.Sprintf("update-%d", r.seq)
	r.updates = append(r.updates, *update)
	return nil
}

func (r *fakeUpdateRepo) ListByRequest(_ context.Context, requestID string, includeInternal bool) ([]domain.RequestUpdate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.RequestUpdate{}
	for _, u := range r.updates {
		if u.RequestID != requestID {
			continue
		}
		if !includeInternal && u.Internal {
			continue
		}
		out = append(out, u)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// recordingDispatcher captures published events for assertions.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) published() []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.Event, len(d.events))
	copy(out, d.events)
	return out
}
