package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/civic-request-service/internal/domain"
)

// UpdateRepository stores the append-only audit trail. Rows are never updated
// or deleted.
type UpdateRepository interface {
	Create(ctx context.Context, update *domain.RequestUpdate) error
	// ListByRequest returns updates ordered by creation time. When
	// includeInternal is false, internal-only entries are filtered out for
	// the citizen-facing view.
	ListByRequest(ctx context.Context, requestID string, includeInternal bool) ([]domain.RequestUpdate, error)
}

type updateRepository struct {
	pool *pgxpool.Pool
}

// NewUpdateRepository builds the repository.
func NewUpdateRepository(pool *pgxpool.Pool) UpdateRepository {
	return &updateRepository{pool: pool}
}

func (r *updateRepository) Create(ctx context.Context, update *domain.RequestUpdate) error {
	const query = `
        INSERT INTO request_updates (request_id, user_id, comment, update_type, is_internal, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id`

	return querierFrom(ctx, r.pool).QueryRow(ctx, query,
		update.RequestID,
		update.UserID,
		update.Comment,
		update.UpdateType,
		update.Internal,
		update.CreatedAt,
	).Scan(&update.ID)
}

func (r *updateRepository) ListByRequest(ctx context.Context, requestID string, includeInternal bool) ([]domain.RequestUpdate, error) {
	query := `
        SELECT id, request_id, user_id, comment, update_type, is_internal, created_at
        FROM request_updates WHERE request_id=$1`
	if !includeInternal {
		query += ` AND NOT is_internal`
	}
	query += ` ORDER BY created_at`

	rows, err := querierFrom(ctx, r.pool).Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.RequestUpdate
	for rows.Next() {
		var update domain.RequestUpdate
		if err := rows.Scan(
			&update.ID,
			&update.RequestID,
			&update.UserID,
			&update.Comment,
			&update.UpdateType,
			&update.Internal,
			&update.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, update)
	}
	return result, rows.Err()
}
