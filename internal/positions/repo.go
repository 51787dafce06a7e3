package positions

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantage-admin/vantage-admin/internal/platform/db"
	"github.com/vantage-admin/vantage-admin/internal/shared"
)

// Repository defines persistence operations for positions.
type Repository interface {
	List(ctx context.Context) ([]Position, error)
	Get(ctx context.Context, id uuid.UUID) (*Position, error)
	Insert(ctx context.Context, pos *Position) error
	Update(ctx context.Context, pos *Position) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountUsers(ctx context.Context, id uuid.UUID) (int, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const positionColumns = `id, code, name, sort, created_at, updated_at`

// List returns all positions ordered by sort and name.
func (r *PGRepository) List(ctx context.Context) ([]Position, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+positionColumns+` FROM positions ORDER BY sort, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Position
	for rows.Next() {
		var p Position
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Sort, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get fetches one position.
func (r *PGRepository) Get(ctx context.Context, id uuid.UUID) (*Position, error) {
	var p Position
	err := r.pool.QueryRow(ctx, `SELECT `+positionColumns+` FROM positions WHERE id = $1`, id).
		Scan(&p.ID, &p.Code, &p.Name, &p.Sort, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Insert persists a new position. Codes are unique.
func (r *PGRepository) Insert(ctx context.Context, pos *Position) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO positions (id, code, name, sort, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		pos.ID, pos.Code, pos.Name, pos.Sort, pos.CreatedAt, pos.UpdatedAt)
	if err != nil && db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: position code %q already exists", shared.ErrConflict, pos.Code)
	}
	return err
}

// Update rewrites the mutable fields.
func (r *PGRepository) Update(ctx context.Context, pos *Position) error {
	tag, err := r.pool.Exec(ctx, `UPDATE positions SET name = $2, sort = $3, updated_at = $4 WHERE id = $1`,
		pos.ID, pos.Name, pos.Sort, pos.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a position.
func (r *PGRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM positions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountUsers counts users currently holding the position.
func (r *PGRepository) CountUsers(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_positions WHERE position_id = $1`, id).Scan(&n)
	return n, err
}

var _ Repository = (*PGRepository)(nil)
