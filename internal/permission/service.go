package permission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vantage-admin/vantage-admin/internal/shared"
)

// Service is the permission lifecycle manager. It enforces the hierarchy
// invariants on every write and owns the cascade removal algorithm.
type Service struct {
	repo     Repository
	reserved shared.Reserved
	audit    *shared.AuditLogger
	logger   *slog.Logger
}

// NewService constructs the lifecycle manager.
func NewService(repo Repository, reserved shared.Reserved, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, reserved: reserved, audit: audit, logger: logger}
}

// Get returns a single node.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Node, error) {
	return s.repo.Get(ctx, id)
}

// Tree returns the nested view of all non-deleted nodes.
func (s *Service) Tree(ctx context.Context) ([]*TreeNode, error) {
	nodes, err := s.repo.ListAll(ctx, false)
	if err != nil {
		return nil, err
	}
	return NewTree(nodes, s.reserved.RootParentID).Build(), nil
}

// List returns nodes filtered by kind, flat.
func (s *Service) List(ctx context.Context, kinds []Kind, includeDeleted bool) ([]Node, error) {
	if len(kinds) == 0 {
		return s.repo.ListAll(ctx, includeDeleted)
	}
	return s.repo.ListByKinds(ctx, kinds, includeDeleted)
}

// Create validates the hierarchy invariants and inserts a user-authored node.
// API nodes are rejected outright; only the synchronizer creates those.
func (s *Service) Create(ctx context.Context, actor string, input CreateNode) (*Node, error) {
	if input.Kind == KindAPI {
		return nil, fmt.Errorf("%w: api nodes are system managed", shared.ErrConflict)
	}
	if err := s.validateParent(ctx, input.Kind, input.ParentID); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByCode(ctx, input.Code); err == nil {
		return nil, fmt.Errorf("%w: code %q already exists", shared.ErrConflict, input.Code)
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	node := &Node{
		ID:        uuid.New(),
		Code:      input.Code,
		Name:      input.Name,
		Kind:      input.Kind,
		Origin:    OriginUser,
		ParentID:  input.ParentID,
		Action:    input.Action,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if node.Kind == KindMenu {
		node.Action = ActionAccess
		node.Menu = input.Menu
		if node.Menu == nil {
			node.Menu = &MenuMeta{}
		}
	}
	if node.Action == "" {
		node.Action = ActionView
	}
	if err := s.repo.Insert(ctx, node); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "permission.create", node.ID.String(), map[string]any{"code": node.Code, "kind": node.Kind})
	return node, nil
}

// Update applies a partial patch. Kind is immutable and API nodes cannot be
// edited by users.
func (s *Service) Update(ctx context.Context, actor string, id uuid.UUID, patch UpdateNode) (*Node, error) {
	node, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if node.Deleted() {
		return nil, shared.ErrNotFound
	}
	if node.Kind == KindAPI {
		return nil, fmt.Errorf("%w: api nodes are system managed", shared.ErrConflict)
	}

	if patch.Code != nil && *patch.Code != node.Code {
		if _, err := s.repo.FindByCode(ctx, *patch.Code); err == nil {
			return nil, fmt.Errorf("%w: code %q already exists", shared.ErrConflict, *patch.Code)
		} else if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		node.Code = *patch.Code
	}
	if patch.ParentID != nil && *patch.ParentID != node.ParentID {
		if err := s.validateParent(ctx, node.Kind, *patch.ParentID); err != nil {
			return nil, err
		}
		if *patch.ParentID != s.reserved.RootParentID {
			nodes, err := s.repo.ListAll(ctx, false)
			if err != nil {
				return nil, err
			}
			for _, did := range NewTree(nodes, s.reserved.RootParentID).Descendants(id) {
				if did == *patch.ParentID {
					return nil, fmt.Errorf("%w: cannot move node under its own subtree", shared.ErrConflict)
				}
			}
		}
		node.ParentID = *patch.ParentID
	}
	if patch.Name != nil {
		node.Name = *patch.Name
	}
	if patch.Action != nil && node.Kind != KindMenu {
		node.Action = *patch.Action
	}
	if patch.Menu != nil && node.Kind == KindMenu {
		node.Menu = patch.Menu
	}
	node.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, node); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "permission.update", node.ID.String(), map[string]any{"code": node.Code})
	return node, nil
}

// CascadeRemove removes the subtree rooted at id. Role grants over the whole
// collected set are unbound first, API descendants are soft-deleted and
// orphaned, structural descendants are hard-deleted leaf-to-root. The whole
// sequence runs in one transaction.
func (s *Service) CascadeRemove(ctx context.Context, actor string, id uuid.UUID) error {
	nodes, err := s.repo.ListAll(ctx, false)
	if err != nil {
		return err
	}
	tree := NewTree(nodes, s.reserved.RootParentID)
	if _, ok := tree.Get(id); !ok {
		return shared.ErrNotFound
	}
	plan := PlanRemoval(tree, id)
	if err := s.repo.ApplyDeletionPlan(ctx, plan, time.Now().UTC()); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "permission.cascade_remove", id.String(), map[string]any{
		"softDeleted": len(plan.SoftDelete),
		"hardDeleted": len(plan.HardDelete),
	})
	return nil
}

// RemoveMany cascades each target. The batch is rejected outright if any
// target is an API node; those are lifecycle-managed only by the
// synchronizer.
func (s *Service) RemoveMany(ctx context.Context, actor string, ids []uuid.UUID) error {
	for _, id := range ids {
		node, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if node.Kind == KindAPI {
			return fmt.Errorf("%w: api node %s cannot be deleted directly", shared.ErrConflict, node.Code)
		}
	}
	for _, id := range ids {
		if err := s.CascadeRemove(ctx, actor, id); err != nil {
			return err
		}
	}
	return nil
}

// validateParent enforces the parent-kind rules: directories nest under
// directories, menus under directories, buttons and APIs require a menu.
func (s *Service) validateParent(ctx context.Context, kind Kind, parentID uuid.UUID) error {
	if parentID == s.reserved.RootParentID {
		if kind == KindButton || kind == KindAPI {
			return fmt.Errorf("%w: %s nodes require a menu parent", shared.ErrConflict, kind)
		}
		return nil
	}
	parent, err := s.repo.Get(ctx, parentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("%w: parent %s", shared.ErrNotFound, parentID)
		}
		return err
	}
	if parent.Deleted() {
		return fmt.Errorf("%w: parent %s", shared.ErrNotFound, parentID)
	}
	switch kind {
	case KindDirectory:
		if parent.Kind != KindDirectory {
			return fmt.Errorf("%w: directory parent must be a directory", shared.ErrConflict)
		}
	case KindMenu:
		if parent.Kind != KindDirectory {
			return fmt.Errorf("%w: menu parent must be a directory", shared.ErrConflict)
		}
	case KindButton, KindAPI:
		if parent.Kind != KindMenu {
			return fmt.Errorf("%w: %s parent must be a menu", shared.ErrConflict, kind)
		}
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actor, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{ActorID: actor, Action: action, Entity: "permission_node", EntityID: entityID, Meta: meta}); err != nil && s.logger != nil {
		s.logger.Warn("audit record", slog.Any("error", err))
	}
}
