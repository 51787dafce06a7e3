package roles

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

// Repository defines persistence operations for roles and their bindings.
type Repository interface {
	List(ctx context.Context) ([]Role, error)
	Get(ctx context.Context, id uuid.UUID) (*Role, error)
	Insert(ctx context.Context, role *Role) error
	Update(ctx context.Context, role *Role) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListPermissionIDs(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error)
	AttachPermission(ctx context.Context, roleID, permissionID uuid.UUID) error
	DetachPermission(ctx context.Context, roleID, permissionID uuid.UUID) error
	ListDepartmentIDs(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error)
	AttachDepartment(ctx context.Context, roleID, departmentID uuid.UUID) error
	DetachDepartment(ctx context.Context, roleID, departmentID uuid.UUID) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// List returns all roles ordered by name.
func (r *PGRepository) List(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, role_key, name, remark, data_scope, created_at, updated_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Key, &role.Name, &role.Remark, &role.DataScope, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

// Get fetches a role by ID.
func (r *PGRepository) Get(ctx context.Context, id uuid.UUID) (*Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx, `SELECT id, role_key, name, remark, data_scope, created_at, updated_at FROM roles WHERE id = $1`, id).
		Scan(&role.ID, &role.Key, &role.Name, &role.Remark, &role.DataScope, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

// Insert persists a new role.
func (r *PGRepository) Insert(ctx context.Context, role *Role) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO roles (id, role_key, name, remark, data_scope, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		role.ID, role.Key, role.Name, role.Remark, role.DataScope, role.CreatedAt, role.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: role key %q already exists", shared.ErrConflict, role.Key)
	}
	return err
}

// Update rewrites mutable role fields.
func (r *PGRepository) Update(ctx context.Context, role *Role) error {
	tag, err := r.pool.Exec(ctx, `UPDATE roles SET name = $2, remark = $3, data_scope = $4, updated_at = $5 WHERE id = $1`,
		role.ID, role.Name, role.Remark, role.DataScope, role.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes the role and all its bindings atomically.
func (r *PGRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM role_departments WHERE role_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE role_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// ListPermissionIDs returns the permission IDs bound to a role.
func (r *PGRepository) ListPermissionIDs(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error) {
	return r.listIDs(ctx, `SELECT permission_id FROM role_permissions WHERE role_id = $1`, roleID)
}

// AttachPermission binds a permission to a role.
func (r *PGRepository) AttachPermission(ctx context.Context, roleID, permissionID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, roleID, permissionID)
	return err
}

// DetachPermission removes a permission binding.
func (r *PGRepository) DetachPermission(ctx context.Context, roleID, permissionID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2`, roleID, permissionID)
	return err
}

// ListDepartmentIDs returns the custom-scope department set of a role.
func (r *PGRepository) ListDepartmentIDs(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error) {
	return r.listIDs(ctx, `SELECT department_id FROM role_departments WHERE role_id = $1`, roleID)
}

// AttachDepartment binds a department to a custom-scope role.
func (r *PGRepository) AttachDepartment(ctx context.Context, roleID, departmentID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO role_departments (role_id, department_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, roleID, departmentID)
	return err
}

// DetachDepartment removes a department binding.
func (r *PGRepository) DetachDepartment(ctx context.Context, roleID, departmentID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM role_departments WHERE role_id = $1 AND department_id = $2`, roleID, departmentID)
	return err
}

func (r *PGRepository) listIDs(ctx context.Context, query string, roleID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, query, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

var _ Repository = (*PGRepository)(nil)
