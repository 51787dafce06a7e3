package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantage-admin/vantage-admin/internal/platform/db"
	"github.com/vantage-admin/vantage-admin/internal/rbac"
	"github.com/vantage-admin/vantage-admin/internal/shared"
)

// Repository defines persistence operations for users.
type Repository interface {
	List(ctx context.Context, req ListUsersRequest, scope rbac.Predicate) ([]User, int, error)
	Get(ctx context.Context, id uuid.UUID) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	Insert(ctx context.Context, user *User, roleIDs []uuid.UUID) error
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id uuid.UUID) error
	ReplaceRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) error
	RoleIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, hash string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `u.id, u.username, u.name, u.email, u.password_hash, u.department_id, u.is_active, u.created_at, u.updated_at`

// List applies the data-scope predicate and the request filters, returning
// one page plus the total matching the same predicate and filters.
func (r *PGRepository) List(ctx context.Context, req ListUsersRequest, scope rbac.Predicate) ([]User, int, error) {
	var where []string
	var args []any

	switch scope.Kind {
	case rbac.OwnerEquals:
		args = append(args, scope.OwnerID)
		where = append(where, "u.id = $"+strconv.Itoa(len(args)))
	case rbac.DepartmentIn:
		args = append(args, scope.DepartmentIDs)
		where = append(where, "u.department_id = ANY($"+strconv.Itoa(len(args))+")")
	}
	if req.Username != "" {
		args = append(args, "%"+req.Username+"%")
		where = append(where, "u.username ILIKE $"+strconv.Itoa(len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users u`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(req.Page, req.PerPage, total)
	args = append(args, page.PerPage, page.Offset())
	query := `SELECT ` + userColumns + ` FROM users u` + clause +
		` ORDER BY u.created_at LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Get fetches a user with their position bindings.
func (r *PGRepository) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := r.attachPositions(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// FindByUsername fetches a user by their unique username.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.username = $1`, username)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// Insert persists the user, their role bindings and position bindings.
func (r *PGRepository) Insert(ctx context.Context, user *User, roleIDs []uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO users (id, username, name, email, password_hash, department_id, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			user.ID, user.Username, user.Name, user.Email, user.PasswordHash, nullableID(user.DepartmentID), user.IsActive, user.CreatedAt, user.UpdatedAt)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("%w: username %q already exists", shared.ErrConflict, user.Username)
			}
			return err
		}
		for _, roleID := range roleIDs {
			if _, err := tx.Exec(ctx, `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, user.ID, roleID); err != nil {
				return err
			}
		}
		for _, posID := range user.PositionIDs {
			if _, err := tx.Exec(ctx, `INSERT INTO user_positions (user_id, position_id) VALUES ($1, $2)`, user.ID, posID); err != nil {
				return err
			}
		}
		return nil
	})
}

// Update rewrites mutable user fields and replaces position bindings.
func (r *PGRepository) Update(ctx context.Context, user *User) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE users SET name = $2, email = $3, department_id = $4, is_active = $5, updated_at = $6 WHERE id = $1`,
			user.ID, user.Name, user.Email, nullableID(user.DepartmentID), user.IsActive, user.UpdatedAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_positions WHERE user_id = $1`, user.ID); err != nil {
			return err
		}
		for _, posID := range user.PositionIDs {
			if _, err := tx.Exec(ctx, `INSERT INTO user_positions (user_id, position_id) VALUES ($1, $2)`, user.ID, posID); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes the user and their bindings atomically.
func (r *PGRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_positions WHERE user_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// ReplaceRoles swaps the user's role set in one transaction.
func (r *PGRepository) ReplaceRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
			return err
		}
		for _, roleID := range roleIDs {
			if _, err := tx.Exec(ctx, `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, userID, roleID); err != nil {
				return err
			}
		}
		return nil
	})
}

// RoleIDs returns the IDs of the user's assigned roles.
func (r *PGRepository) RoleIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT role_id FROM user_roles WHERE user_id = $1`, userID)
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

// UpdatePassword stores a new password hash.
func (r *PGRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, hash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, userID, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) attachPositions(ctx context.Context, user *User) error {
	rows, err := r.pool.Query(ctx, `SELECT position_id FROM user_positions WHERE user_id = $1`, user.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return err
		}
		user.PositionIDs = append(user.PositionIDs, id)
	}
	return rows.Err()
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var dept *uuid.UUID
	if err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.PasswordHash, &dept, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if dept != nil {
		u.DepartmentID = *dept
	}
	return &u, nil
}

func nullableID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}

var _ Repository = (*PGRepository)(nil)
