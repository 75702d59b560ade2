package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-request-service/internal/domain"
)

// AssignmentRepository stores staff assignment rows.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.RequestAssignment) error
	// DeactivateForRequest flips every active assignment of the request to
	// inactive and returns how many rows changed.
	DeactivateForRequest(ctx context.Context, requestID string) (int64, error)
	ListActiveByRequest(ctx context.Context, requestID string) ([]domain.RequestAssignment, error)
	ListByRequest(ctx context.Context, requestID string) ([]domain.RequestAssignment, error)
}

type assignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository builds the repository.
func NewAssignmentRepository(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepository{pool: pool}
}

const assignmentColumns = `id, request_id, assigned_to_user_id, assigned_by_user_id, notes, assigned_at, completed_at, is_active`

func (r *assignmentRepository) Create(ctx context.Context, assignment *domain.RequestAssignment) error {
	const query = `
        INSERT INTO request_assignments (request_id, assigned_to_user_id, assigned_by_user_id, notes, assigned_at, is_active)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id`

	return querierFrom(ctx, r.pool).QueryRow(ctx, query,
		assignment.RequestID,
		assignment.AssignedToUserID,
		assignment.AssignedByUserID,
		assignment.Notes,
		assignment.AssignedAt,
		assignment.Active,
	).Scan(&assignment.ID)
}

func (r *assignmentRepository) DeactivateForRequest(ctx context.Context, requestID string) (int64, error) {
	const query = `UPDATE request_assignments SET is_active=false WHERE request_id=$1 AND is_active`

	cmd, err := querierFrom(ctx, r.pool).Exec(ctx, query, requestID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *assignmentRepository) ListActiveByRequest(ctx context.Context, requestID string) ([]domain.RequestAssignment, error) {
	const query = `
        SELECT ` + assignmentColumns + `
        FROM request_assignments WHERE request_id=$1 AND is_active ORDER BY assigned_at`
	return r.list(ctx, query, requestID)
}

func (r *assignmentRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.RequestAssignment, error) {
	const query = `
        SELECT ` + assignmentColumns + `
        FROM request_assignments WHERE request_id=$1 ORDER BY assigned_at`
	return r.list(ctx, query, requestID)
}

func (r *assignmentRepository) list(ctx context.Context, query, requestID string) ([]domain.RequestAssignment, error) {
	rows, err := querierFrom(ctx, r.pool).Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func scanAssignments(rows pgx.Rows) ([]domain.RequestAssignment, error) {
	var result []domain.RequestAssignment
	for rows.Next() {
		var assignment domain.RequestAssignment
		if err := rows.Scan(
			&assignment.ID,
			&assignment.RequestID,
			&assignment.AssignedToUserID,
			&assignment.AssignedByUserID,
			&assignment.Notes,
			&assignment.AssignedAt,
			&assignment.CompletedAt,
			&assignment.Active,
		); err != nil {
			return nil, err
		}
		result = append(result, assignment)
	}
	return result, rows.Err()
}
