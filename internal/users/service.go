package users

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vantage-admin/vantage-admin/internal/rbac"
	"github.com/vantage-admin/vantage-admin/internal/shared"
)

// Service handles user account business logic. The reserved super account
// can only be modified by another super administrator.
type Service struct {
	repo     Repository
	reserved shared.Reserved
	audit    *shared.AuditLogger
	logger   *slog.Logger
}

// NewService builds Service instance.
func NewService(repo Repository, reserved shared.Reserved, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, reserved: reserved, audit: audit, logger: logger}
}

// ListPage holds one page of users.
type ListPage struct {
	Users      []User            `json:"users"`
	Pagination shared.Pagination `json:"pagination"`
}

// List returns one page of users visible under the actor's data scope.
func (s *Service) List(ctx context.Context, req ListUsersRequest, scope rbac.Predicate) (*ListPage, error) {
	items, total, err := s.repo.List(ctx, req, scope)
	if err != nil {
		return nil, err
	}
	return &ListPage{Users: items, Pagination: shared.NewPagination(req.Page, req.PerPage, total)}, nil
}

// Get fetches a user by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a new account with hashed credentials and role bindings.
func (s *Service) Create(ctx context.Context, actorID string, input CreateUser) (*User, error) {
	username := strings.TrimSpace(input.Username)
	if username == s.reserved.SuperUsername {
		return nil, fmt.Errorf("%w: username %q is reserved", shared.ErrConflict, username)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &User{
		ID:           uuid.New(),
		Username:     username,
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: string(hash),
		DepartmentID: input.DepartmentID,
		PositionIDs:  input.PositionIDs,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, user, input.RoleIDs); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorID, "user.create", user.ID, map[string]any{"username": user.Username})
	return user, nil
}

// Update applies a partial patch. The username is immutable.
func (s *Service) Update(ctx context.Context, actor *rbac.Principal, id uuid.UUID, patch UpdateUser) (*User, error) {
	user, err := s.guardedGet(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		user.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		user.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.DepartmentID != nil {
		user.DepartmentID = *patch.DepartmentID
	}
	if patch.PositionIDs != nil {
		user.PositionIDs = *patch.PositionIDs
	}
	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}
	user.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actorAuditID(actor), "user.update", user.ID, nil)
	return user, nil
}

// Remove deletes the account and its role and position bindings.
func (s *Service) Remove(ctx context.Context, actor *rbac.Principal, id uuid.UUID) error {
	user, err := s.guardedGet(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorAuditID(actor), "user.delete", id, map[string]any{"username": user.Username})
	return nil
}

// SetRoles replaces the user's role set.
func (s *Service) SetRoles(ctx context.Context, actor *rbac.Principal, id uuid.UUID, roleIDs []uuid.UUID) error {
	if _, err := s.guardedGet(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.ReplaceRoles(ctx, id, roleIDs); err != nil {
		return err
	}
	s.recordAudit(ctx, actorAuditID(actor), "user.assign_roles", id, map[string]any{"roles": len(roleIDs)})
	return nil
}

// RoleIDs returns the user's assigned role IDs.
func (s *Service) RoleIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.RoleIDs(ctx, id)
}

// ResetPassword replaces the account credentials with a freshly hashed one.
func (s *Service) ResetPassword(ctx context.Context, actor *rbac.Principal, id uuid.UUID, password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", shared.ErrValidation)
	}
	if _, err := s.guardedGet(ctx, actor, id); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, id, string(hash)); err != nil {
		return err
	}
	s.recordAudit(ctx, actorAuditID(actor), "user.reset_password", id, nil)
	return nil
}

// guardedGet fetches a user and refuses mutations of the super account by
// anyone who is not themselves a super administrator.
func (s *Service) guardedGet(ctx context.Context, actor *rbac.Principal, id uuid.UUID) (*User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Username == s.reserved.SuperUsername && (actor == nil || !actor.IsSuperAdmin) {
		return nil, fmt.Errorf("%w: the super account can only be managed by a super administrator", shared.ErrForbidden)
	}
	return user, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID string, action string, entityID uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: entityID.String(),
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("audit record failed", "action", action, "error", err)
	}
}

func actorAuditID(actor *rbac.Principal) string {
	if actor == nil {
		return ""
	}
	return actor.UserID.String()
}
