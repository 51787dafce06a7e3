package departments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantage-admin/vantage-admin/internal/shared"
)

// Repository defines persistence operations for departments.
type Repository interface {
	List(ctx context.Context) ([]Department, error)
	Get(ctx context.Context, id uuid.UUID) (*Department, error)
	Insert(ctx context.Context, dept *Department) error
	Update(ctx context.Context, dept *Department) error
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

// List returns all departments ordered by sort weight.
func (r *PGRepository) List(ctx context.Context) ([]Department, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, parent_id, name, sort, created_at, updated_at FROM departments ORDER BY sort, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var depts []Department
	for rows.Next() {
		dept, err := scanDept(rows)
		if err != nil {
			return nil, err
		}
		depts = append(depts, *dept)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return depts, nil
}

// Get fetches a department by ID.
func (r *PGRepository) Get(ctx context.Context, id uuid.UUID) (*Department, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, parent_id, name, sort, created_at, updated_at FROM departments WHERE id = $1`, id)
	dept, err := scanDept(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return dept, nil
}

// Insert persists a new department.
func (r *PGRepository) Insert(ctx context.Context, dept *Department) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO departments (id, parent_id, name, sort, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		dept.ID, nullableID(dept.ParentID), dept.Name, dept.Sort, dept.CreatedAt, dept.UpdatedAt)
	return err
}

// Update rewrites a department row.
func (r *PGRepository) Update(ctx context.Context, dept *Department) error {
	tag, err := r.pool.Exec(ctx, `UPDATE departments SET parent_id = $2, name = $3, sort = $4, updated_at = $5 WHERE id = $1`,
		dept.ID, nullableID(dept.ParentID), dept.Name, dept.Sort, dept.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a department row.
func (r *PGRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountUsers returns how many users belong to the department.
func (r *PGRepository) CountUsers(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE department_id = $1`, id).Scan(&count)
	return count, err
}

func scanDept(row pgx.Row) (*Department, error) {
	var d Department
	var parent *uuid.UUID
	if err := row.Scan(&d.ID, &parent, &d.Name, &d.Sort, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if parent != nil {
		d.ParentID = *parent
	}
	return &d, nil
}

func nullableID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}

var _ Repository = (*PGRepository)(nil)
