package permission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vantage-admin/vantage-admin/internal/platform/db"
	"github.com/vantage-admin/vantage-admin/internal/shared"
)

// Repository defines persistence operations for the permission tree.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (*Node, error)
	FindByCode(ctx context.Context, code string) (*Node, error)
	Children(ctx context.Context, parentID uuid.UUID) ([]Node, error)
	ListAll(ctx context.Context, includeDeleted bool) ([]Node, error)
	ListByKinds(ctx context.Context, kinds []Kind, includeDeleted bool) ([]Node, error)
	Insert(ctx context.Context, node *Node) error
	Update(ctx context.Context, node *Node) error
	Reactivate(ctx context.Context, id, parentID uuid.UUID) error
	ApplyDeletionPlan(ctx context.Context, plan DeletionPlan, at time.Time) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const nodeColumns = `n.id, n.code, n.name, n.kind, n.origin, n.parent_id, n.action, n.deleted_at, n.created_at, n.updated_at,
	m.path, m.icon, m.hidden, m.sort`

const nodeFrom = `FROM permission_nodes n LEFT JOIN permission_menus m ON m.node_id = n.id`

func scanNode(row pgx.Row) (*Node, error) {
	var n Node
	var parent *uuid.UUID
	var path, icon *string
	var hidden *bool
	var sortWeight *int
	err := row.Scan(&n.ID, &n.Code, &n.Name, &n.Kind, &n.Origin, &parent, &n.Action, &n.DeletedAt, &n.CreatedAt, &n.UpdatedAt,
		&path, &icon, &hidden, &sortWeight)
	if err != nil {
		return nil, err
	}
	if parent != nil {
		n.ParentID = *parent
	}
	if path != nil {
		n.Menu = &MenuMeta{Path: *path}
		if icon != nil {
			n.Menu.Icon = *icon
		}
		if hidden != nil {
			n.Menu.Hidden = *hidden
		}
		if sortWeight != nil {
			n.Menu.Sort = *sortWeight
		}
	}
	return &n, nil
}

// Get fetches a node by ID, soft-deleted rows included.
func (r *PGRepository) Get(ctx context.Context, id uuid.UUID) (*Node, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+nodeColumns+` `+nodeFrom+` WHERE n.id = $1`, id)
	node, err := scanNode(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return node, nil
}

// FindByCode fetches a non-deleted node by its unique code.
func (r *PGRepository) FindByCode(ctx context.Context, code string) (*Node, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+nodeColumns+` `+nodeFrom+` WHERE n.code = $1 AND n.deleted_at IS NULL`, code)
	node, err := scanNode(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return node, nil
}

// Children returns the non-deleted direct children of parentID.
func (r *PGRepository) Children(ctx context.Context, parentID uuid.UUID) ([]Node, error) {
	var rows pgx.Rows
	var err error
	if parentID == uuid.Nil {
		rows, err = r.pool.Query(ctx, `SELECT `+nodeColumns+` `+nodeFrom+` WHERE n.parent_id IS NULL AND n.deleted_at IS NULL ORDER BY n.code`)
	} else {
		rows, err = r.pool.Query(ctx, `SELECT `+nodeColumns+` `+nodeFrom+` WHERE n.parent_id = $1 AND n.deleted_at IS NULL ORDER BY n.code`, parentID)
	}
	if err != nil {
		return nil, err
	}
	return collectNodes(rows)
}

// ListAll loads the entire node set in one query so tree building never
// issues per-node lookups.
func (r *PGRepository) ListAll(ctx context.Context, includeDeleted bool) ([]Node, error) {
	query := `SELECT ` + nodeColumns + ` ` + nodeFrom
	if !includeDeleted {
		query += ` WHERE n.deleted_at IS NULL`
	}
	rows, err := r.pool.Query(ctx, query+` ORDER BY n.code`)
	if err != nil {
		return nil, err
	}
	return collectNodes(rows)
}

// ListByKinds returns nodes filtered by kind.
func (r *PGRepository) ListByKinds(ctx context.Context, kinds []Kind, includeDeleted bool) ([]Node, error) {
	query := `SELECT ` + nodeColumns + ` ` + nodeFrom + ` WHERE n.kind = ANY($1)`
	if !includeDeleted {
		query += ` AND n.deleted_at IS NULL`
	}
	rows, err := r.pool.Query(ctx, query+` ORDER BY n.code`, kinds)
	if err != nil {
		return nil, err
	}
	return collectNodes(rows)
}

func collectNodes(rows pgx.Rows) ([]Node, error) {
	defer rows.Close()
	var nodes []Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, *node)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nodes, nil
}

// Insert persists a node and, for menus, its paired metadata row.
func (r *PGRepository) Insert(ctx context.Context, node *Node) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO permission_nodes (id, code, name, kind, origin, parent_id, action, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			node.ID, node.Code, node.Name, node.Kind, node.Origin, nullableID(node.ParentID), node.Action, node.CreatedAt, node.UpdatedAt)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("%w: code %q already exists", shared.ErrConflict, node.Code)
			}
			return err
		}
		if node.Menu != nil {
			_, err = tx.Exec(ctx, `INSERT INTO permission_menus (node_id, path, icon, hidden, sort) VALUES ($1, $2, $3, $4, $5)`,
				node.ID, node.Menu.Path, node.Menu.Icon, node.Menu.Hidden, node.Menu.Sort)
		}
		return err
	})
}

// Update rewrites node fields and replaces menu metadata.
func (r *PGRepository) Update(ctx context.Context, node *Node) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE permission_nodes SET code = $2, name = $3, parent_id = $4, action = $5, updated_at = $6 WHERE id = $1`,
			node.ID, node.Code, node.Name, nullableID(node.ParentID), node.Action, node.UpdatedAt)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("%w: code %q already exists", shared.ErrConflict, node.Code)
			}
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM permission_menus WHERE node_id = $1`, node.ID); err != nil {
			return err
		}
		if node.Menu != nil {
			_, err = tx.Exec(ctx, `INSERT INTO permission_menus (node_id, path, icon, hidden, sort) VALUES ($1, $2, $3, $4, $5)`,
				node.ID, node.Menu.Path, node.Menu.Icon, node.Menu.Hidden, node.Menu.Sort)
		}
		return err
	})
}

// Reactivate clears the soft-delete marker of an API node and reattaches it
// to the given menu.
func (r *PGRepository) Reactivate(ctx context.Context, id, parentID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE permission_nodes SET deleted_at = NULL, parent_id = $2, updated_at = NOW() WHERE id = $1`,
		id, nullableID(parentID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ApplyDeletionPlan executes a cascade removal atomically: unbind role
// grants, soft-delete API nodes, drop menu metadata, detach outside nodes
// still pointing at doomed parents, then hard-delete leaf-to-root.
func (r *PGRepository) ApplyDeletionPlan(ctx context.Context, plan DeletionPlan, at time.Time) error {
	if plan.Empty() {
		return nil
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		all := plan.All()
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE permission_id = ANY($1)`, all); err != nil {
			return err
		}
		if len(plan.SoftDelete) > 0 {
			if _, err := tx.Exec(ctx, `UPDATE permission_nodes SET deleted_at = $2, parent_id = NULL, updated_at = $2 WHERE id = ANY($1)`, plan.SoftDelete, at); err != nil {
				return err
			}
		}
		if len(plan.HardDelete) > 0 {
			if _, err := tx.Exec(ctx, `DELETE FROM permission_menus WHERE node_id = ANY($1)`, plan.HardDelete); err != nil {
				return err
			}
			// Previously soft-deleted API rows outside this batch may still
			// reference a doomed structural node.
			if _, err := tx.Exec(ctx, `UPDATE permission_nodes SET parent_id = NULL WHERE parent_id = ANY($1) AND NOT (id = ANY($2))`, plan.HardDelete, all); err != nil {
				return err
			}
			for _, id := range plan.HardDelete {
				if _, err := tx.Exec(ctx, `DELETE FROM permission_nodes WHERE id = $1`, id); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func nullableID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}

var _ Repository = (*PGRepository)(nil)
