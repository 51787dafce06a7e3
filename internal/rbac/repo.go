package rbac

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantage-admin/vantage-admin/internal/shared"
)

// PGDirectory implements Directory using PostgreSQL.
type PGDirectory struct {
	pool *pgxpool.Pool
}

// NewDirectory constructs a PostgreSQL directory.
func NewDirectory(pool *pgxpool.Pool) *PGDirectory {
	return &PGDirectory{pool: pool}
}

// GetUser fetches the identity row behind a session subject.
func (d *PGDirectory) GetUser(ctx context.Context, id uuid.UUID) (*UserRecord, error) {
	var rec UserRecord
	var dept *uuid.UUID
	err := d.pool.QueryRow(ctx, `SELECT id, username, department_id, is_active FROM users WHERE id = $1`, id).
		Scan(&rec.ID, &rec.Username, &dept, &rec.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if dept != nil {
		rec.DepartmentID = *dept
	}
	return &rec, nil
}

// RolesForUser loads the user's roles together with the non-deleted
// permission codes and, for custom-scope roles, the bound department set.
func (d *PGDirectory) RolesForUser(ctx context.Context, userID uuid.UUID) ([]RoleGrant, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT r.id, r.role_key, r.name, r.data_scope,
			COALESCE(array_remove(array_agg(DISTINCT p.code) FILTER (WHERE p.deleted_at IS NULL), NULL), '{}'),
			COALESCE(array_remove(array_agg(DISTINCT rd.department_id), NULL), '{}')
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		LEFT JOIN permission_nodes p ON p.id = rp.permission_id
		LEFT JOIN role_departments rd ON rd.role_id = r.id
		WHERE ur.user_id = $1
		GROUP BY r.id, r.role_key, r.name, r.data_scope
		ORDER BY r.created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []RoleGrant
	for rows.Next() {
		var g RoleGrant
		if err := rows.Scan(&g.ID, &g.Key, &g.Name, &g.DataScope, &g.PermissionCodes, &g.DepartmentIDs); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return grants, nil
}

var _ Directory = (*PGDirectory)(nil)
