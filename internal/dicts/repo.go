package dicts

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

// Repository defines persistence operations for dictionary data.
type Repository interface {
	ListTypes(ctx context.Context) ([]DictType, error)
	GetType(ctx context.Context, id uuid.UUID) (*DictType, error)
	FindTypeByCode(ctx context.Context, code string) (*DictType, error)
	InsertType(ctx context.Context, t *DictType) error
	UpdateType(ctx context.Context, t *DictType) error
	DeleteType(ctx context.Context, id uuid.UUID) error

	ListItems(ctx context.Context, typeCode string) ([]DictItem, error)
	GetItem(ctx context.Context, id uuid.UUID) (*DictItem, error)
	InsertItem(ctx context.Context, item *DictItem) error
	UpdateItem(ctx context.Context, item *DictItem) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const typeColumns = `id, code, name, remark, created_at, updated_at`
const itemColumns = `id, type_code, label, value, sort, is_active, created_at, updated_at`

// ListTypes returns all dictionary types ordered by code.
func (r *PGRepository) ListTypes(ctx context.Context) ([]DictType, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+typeColumns+` FROM dict_types ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DictType
	for rows.Next() {
		var t DictType
		if err := rows.Scan(&t.ID, &t.Code, &t.Name, &t.Remark, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetType fetches one dictionary type.
func (r *PGRepository) GetType(ctx context.Context, id uuid.UUID) (*DictType, error) {
	return r.scanType(r.pool.QueryRow(ctx, `SELECT `+typeColumns+` FROM dict_types WHERE id = $1`, id))
}

// FindTypeByCode fetches a dictionary type by its unique code.
func (r *PGRepository) FindTypeByCode(ctx context.Context, code string) (*DictType, error) {
	return r.scanType(r.pool.QueryRow(ctx, `SELECT `+typeColumns+` FROM dict_types WHERE code = $1`, code))
}

// InsertType persists a new type. Codes are unique.
func (r *PGRepository) InsertType(ctx context.Context, t *DictType) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO dict_types (id, code, name, remark, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.Code, t.Name, t.Remark, t.CreatedAt, t.UpdatedAt)
	if err != nil && db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: dict type %q already exists", shared.ErrConflict, t.Code)
	}
	return err
}

// UpdateType rewrites mutable type fields.
func (r *PGRepository) UpdateType(ctx context.Context, t *DictType) error {
	tag, err := r.pool.Exec(ctx, `UPDATE dict_types SET name = $2, remark = $3, updated_at = $4 WHERE id = $1`,
		t.ID, t.Name, t.Remark, t.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteType removes the type and every item under it atomically.
func (r *PGRepository) DeleteType(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var code string
		if err := tx.QueryRow(ctx, `SELECT code FROM dict_types WHERE id = $1`, id).Scan(&code); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrNotFound
			}
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM dict_items WHERE type_code = $1`, code); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM dict_types WHERE id = $1`, id)
		return err
	})
}

// ListItems returns items of a type ordered by sort and label.
func (r *PGRepository) ListItems(ctx context.Context, typeCode string) ([]DictItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM dict_items WHERE type_code = $1 ORDER BY sort, label`, typeCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DictItem
	for rows.Next() {
		var it DictItem
		if err := rows.Scan(&it.ID, &it.TypeCode, &it.Label, &it.Value, &it.Sort, &it.IsActive, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// GetItem fetches one item.
func (r *PGRepository) GetItem(ctx context.Context, id uuid.UUID) (*DictItem, error) {
	var it DictItem
	err := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM dict_items WHERE id = $1`, id).
		Scan(&it.ID, &it.TypeCode, &it.Label, &it.Value, &it.Sort, &it.IsActive, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

// InsertItem persists a new item. Values are unique per type.
func (r *PGRepository) InsertItem(ctx context.Context, item *DictItem) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO dict_items (id, type_code, label, value, sort, is_active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.ID, item.TypeCode, item.Label, item.Value, item.Sort, item.IsActive, item.CreatedAt, item.UpdatedAt)
	if err != nil && db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: value %q already exists in dict %q", shared.ErrConflict, item.Value, item.TypeCode)
	}
	return err
}

// UpdateItem rewrites mutable item fields.
func (r *PGRepository) UpdateItem(ctx context.Context, item *DictItem) error {
	tag, err := r.pool.Exec(ctx, `UPDATE dict_items SET label = $2, value = $3, sort = $4, is_active = $5, updated_at = $6 WHERE id = $1`,
		item.ID, item.Label, item.Value, item.Sort, item.IsActive, item.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteItem removes one item.
func (r *PGRepository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM dict_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) scanType(row pgx.Row) (*DictType, error) {
	var t DictType
	if err := row.Scan(&t.ID, &t.Code, &t.Name, &t.Remark, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

var _ Repository = (*PGRepository)(nil)
