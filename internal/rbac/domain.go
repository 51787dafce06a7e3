package rbac

import (
	"context"

	"github.com/google/uuid"
)

// DataScope is the row-visibility tier carried by a role. Higher values grant
// wider visibility.
type DataScope int

const (
	ScopeSelf DataScope = iota + 1
	ScopeDepartment
	ScopeDepartmentTree
	ScopeCustom
	ScopeAll
)

// RoleGrant is a role as seen by the authorization layer: its key, scope and
// the permission codes attached through role_permissions.
type RoleGrant struct {
	ID              uuid.UUID
	Key             string
	Name            string
	DataScope       DataScope
	PermissionCodes []string
	// DepartmentIDs is populated only for ScopeCustom roles.
	DepartmentIDs []uuid.UUID
}

// Principal is the request-scoped representation of the authenticated user.
// It is assembled fresh per request and never cached across requests.
type Principal struct {
	UserID          uuid.UUID
	Username        string
	DepartmentID    uuid.UUID
	Roles           []RoleGrant
	IsSuperAdmin    bool
	PermissionCodes map[string]struct{}
}

// HasRole reports whether the principal holds a role with the given display name.
func (p *Principal) HasRole(name string) bool {
	for _, r := range p.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every required code is granted.
func (p *Principal) HasAllPermissions(codes []string) bool {
	for _, c := range codes {
		if _, ok := p.PermissionCodes[c]; !ok {
			return false
		}
	}
	return true
}

// UserRecord is the persisted identity the aggregator starts from.
type UserRecord struct {
	ID           uuid.UUID
	Username     string
	DepartmentID uuid.UUID
	IsActive     bool
}

// Directory provides the storage reads the aggregator and the data-scope
// resolver need. Implemented by PGDirectory.
type Directory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*UserRecord, error)
	RolesForUser(ctx context.Context, userID uuid.UUID) ([]RoleGrant, error)
}

// DepartmentWalker resolves a department and all its descendants, cycle-safe.
type DepartmentWalker interface {
	DescendantIDs(ctx context.Context, root uuid.UUID) ([]uuid.UUID, error)
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
