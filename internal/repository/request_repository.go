package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-request-service/internal/domain"
)

// RequestFilter captures admin listing parameters.
type RequestFilter struct {
	StatusID    *domain.StatusID
	CategoryID  *string
	WithSLAOnly bool
	Limit       int
	Offset      int
}

// RequestRepository encapsulates service request persistence.
type RequestRepository interface {
	Create(ctx context.Context, request *domain.ServiceRequest) error
	Update(ctx context.Context, request *domain.ServiceRequest) error
	GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error)
	GetByNumber(ctx context.Context, number string) (*domain.ServiceRequest, error)
	// GetByIDForUpdate locks the request row for the duration of the
	// surrounding transaction. Only meaningful inside TxManager.WithinTx.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.ServiceRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]domain.ServiceRequest, error)
	// Snapshot returns every request; the analytics aggregator consumes it.
	Snapshot(ctx context.Context) ([]domain.ServiceRequest, error)
}

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository instantiates the repository.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

const requestColumns = `id, request_number, title, description, user_id, category_id, status_id,
               address, latitude, longitude, priority, submitted_at, assigned_at, resolved_at,
               closed_at, sla_hours, sla_deadline, is_sla_breached, resolution_notes`

func (r *requestRepository) Create(ctx context.Context, request *domain.ServiceRequest) error {
	const query = `
        INSERT INTO service_requests (request_number, title, description, user_id, category_id, status_id,
            address, latitude, longitude, priority, submitted_at, sla_hours, sla_deadline, is_sla_breached)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id`

	return querierFrom(ctx, r.pool).QueryRow(ctx, query,
		request.RequestNumber,
		request.Title,
		request.Description,
		request.UserID,
		request.CategoryID,
		request.StatusID,
		request.Address,
		request.Latitude,
		request.Longitude,
		request.Priority,
		request.SubmittedAt,
		request.SLAHours,
		request.SLADeadline,
		request.IsSLABreached,
	).Scan(&request.ID)
}

func (r *requestRepository) Update(ctx context.Context, request *domain.ServiceRequest) error {
	const query = `
        UPDATE service_requests SET status_id=$1, assigned_at=$2, resolved_at=$3, closed_at=$4,
            is_sla_breached=$5, resolution_notes=$6, priority=$7
        WHERE id=$8`

	cmd, err := querierFrom(ctx, r.pool).Exec(ctx, query,
		request.StatusID,
		request.AssignedAt,
		request.ResolvedAt,
		request.ClosedAt,
		request.IsSLABreached,
		request.ResolutionNotes,
		request.Priority,
		request.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	return r.fetchSingle(ctx, `SELECT `+requestColumns+` FROM service_requests WHERE id=$1`, id)
}

func (r *requestRepository) GetByNumber(ctx context.Context, number string) (*domain.ServiceRequest, error) {
	return r.fetchSingle(ctx, `SELECT `+requestColumns+` FROM service_requests WHERE request_number=$1`, number)
}

func (r *requestRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	return r.fetchSingle(ctx, `SELECT `+requestColumns+` FROM service_requests WHERE id=$1 FOR UPDATE`, id)
}

func (r *requestRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.ServiceRequest, error) {
	var request domain.ServiceRequest
	if err := scanRequest(querierFrom(ctx, r.pool).QueryRow(ctx, query, arg), &request); err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]domain.ServiceRequest, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.StatusID != nil {
		args = append(args, *filter.StatusID)
		clauses = append(clauses, fmt.Sprintf("status_id=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}
	if filter.WithSLAOnly {
		clauses = append(clauses, "sla_deadline IS NOT NULL")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM service_requests WHERE %s ORDER BY submitted_at DESC LIMIT %d OFFSET %d`,
		requestColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := querierFrom(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (r *requestRepository) Snapshot(ctx context.Context) ([]domain.ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests ORDER BY submitted_at`

	rows, err := querierFrom(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func scanRequest(row pgx.Row, request *domain.ServiceRequest) error {
	return row.Scan(
		&request.ID,
		&request.RequestNumber,
		&request.Title,
		&request.Description,
		&request.UserID,
		&request.CategoryID,
		&request.StatusID,
		&request.Address,
		&request.Latitude,
		&request.Longitude,
		&request.Priority,
		&request.SubmittedAt,
		&request.AssignedAt,
		&request.ResolvedAt,
		&request.ClosedAt,
		&request.SLAHours,
		&request.SLADeadline,
		&request.IsSLABreached,
		&request.ResolutionNotes,
	)
}

func scanRequests(rows pgx.Rows) ([]domain.ServiceRequest, error) {
	var result []domain.ServiceRequest
	for rows.Next() {
		var request domain.ServiceRequest
		if err := scanRequest(rows, &request); err != nil {
			return nil, err
		}
		result = append(result, request)
	}
	return result, rows.Err()
}
