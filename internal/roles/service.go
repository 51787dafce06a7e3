package roles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vantage-admin/vantage-admin/internal/rbac"
	"github.com/vantage-admin/vantage-admin/internal/shared"
)

// Service handles role business logic. The reserved super role is excluded
// from every mutation, including permission assignment; it bypasses checks
// instead of holding grants.
type Service struct {
	repo     Repository
	reserved shared.Reserved
}

// NewService builds Service instance.
func NewService(repo Repository, reserved shared.Reserved) *Service {
	return &Service{repo: repo, reserved: reserved}
}

// List returns all roles.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

// Get fetches a role by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Role, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a new role.
func (s *Service) Create(ctx context.Context, input CreateRole) (*Role, error) {
	key := strings.TrimSpace(input.Key)
	if key == s.reserved.SuperRoleKey {
		return nil, fmt.Errorf("%w: role key %q is reserved", shared.ErrConflict, key)
	}
	now := time.Now().UTC()
	role := &Role{
		ID:        uuid.New(),
		Key:       key,
		Name:      strings.TrimSpace(input.Name),
		Remark:    strings.TrimSpace(input.Remark),
		DataScope: input.DataScope,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// Update applies a partial patch to a non-reserved role.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch UpdateRole) (*Role, error) {
	role, err := s.guardedGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		role.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Remark != nil {
		role.Remark = strings.TrimSpace(*patch.Remark)
	}
	if patch.DataScope != nil {
		role.DataScope = *patch.DataScope
	}
	role.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// Remove deletes a non-reserved role together with its bindings.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	if _, err := s.guardedGet(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// SetPermissions replaces the role's permission set, attaching what is
// missing and detaching what was dropped.
func (s *Service) SetPermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	if _, err := s.guardedGet(ctx, roleID); err != nil {
		return err
	}
	current, err := s.repo.ListPermissionIDs(ctx, roleID)
	if err != nil {
		return err
	}
	return s.diffBindings(ctx, roleID, current, permissionIDs, s.repo.AttachPermission, s.repo.DetachPermission)
}

// SetDepartments replaces the custom-scope department set. Only meaningful
// for roles with the custom data scope.
func (s *Service) SetDepartments(ctx context.Context, roleID uuid.UUID, departmentIDs []uuid.UUID) error {
	role, err := s.guardedGet(ctx, roleID)
	if err != nil {
		return err
	}
	if role.DataScope != rbac.ScopeCustom {
		return fmt.Errorf("%w: role %q does not use a custom data scope", shared.ErrConflict, role.Key)
	}
	current, err := s.repo.ListDepartmentIDs(ctx, roleID)
	if err != nil {
		return err
	}
	return s.diffBindings(ctx, roleID, current, departmentIDs, s.repo.AttachDepartment, s.repo.DetachDepartment)
}

func (s *Service) guardedGet(ctx context.Context, id uuid.UUID) (*Role, error) {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if role.Key == s.reserved.SuperRoleKey {
		return nil, fmt.Errorf("%w: the super role is immutable", shared.ErrConflict)
	}
	return role, nil
}

func (s *Service) diffBindings(ctx context.Context, roleID uuid.UUID, current, desired []uuid.UUID,
	attach, detach func(context.Context, uuid.UUID, uuid.UUID) error) error {
	existing := make(map[uuid.UUID]struct{}, len(current))
	for _, id := range current {
		existing[id] = struct{}{}
	}
	keep := make(map[uuid.UUID]struct{}, len(desired))
	for _, id := range desired {
		keep[id] = struct{}{}
		if _, ok := existing[id]; !ok {
			if err := attach(ctx, roleID, id); err != nil {
				return err
			}
		}
	}
	for id := range existing {
		if _, ok := keep[id]; !ok {
			if err := detach(ctx, roleID, id); err != nil {
				return err
			}
		}
	}
	return nil
}
