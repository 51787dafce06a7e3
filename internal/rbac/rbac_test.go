package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-admin/vantage-admin/internal/shared"
)

type mockDirectory struct {
	users  map[uuid.UUID]*UserRecord
	grants map[uuid.UUID][]RoleGrant

	// Error injection
	userError  error
	rolesError error
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		users:  make(map[uuid.UUID]*UserRecord),
		grants: make(map[uuid.UUID][]RoleGrant),
	}
}

func (m *mockDirectory) GetUser(ctx context.Context, id uuid.UUID) (*UserRecord, error) {
	if m.userError != nil {
		return nil, m.userError
	}
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (m *mockDirectory) RolesForUser(ctx context.Context, userID uuid.UUID) ([]RoleGrant, error) {
	if m.rolesError != nil {
		return nil, m.rolesError
	}
	return m.grants[userID], nil
}

type mockWalker struct {
	descendants map[uuid.UUID][]uuid.UUID
	err         error
}

func (m *mockWalker) DescendantIDs(ctx context.Context, root uuid.UUID) ([]uuid.UUID, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.descendants[root], nil
}

func seedUser(dir *mockDirectory, dept uuid.UUID, grants ...RoleGrant) uuid.UUID {
	id := uuid.New()
	dir.users[id] = &UserRecord{ID: id, Username: "u-" + id.String()[:8], DepartmentID: dept, IsActive: true}
	dir.grants[id] = grants
	return id
}

func TestCurrentUserAggregatesGrantUnion(t *testing.T) {
	dir := newMockDirectory()
	userID := seedUser(dir, uuid.Nil,
		RoleGrant{Key: "ops", Name: "Operations", DataScope: ScopeSelf, PermissionCodes: []string{"system:user:view", "system:user:create"}},
		RoleGrant{Key: "audit", Name: "Audit", DataScope: ScopeSelf, PermissionCodes: []string{"system:user:view", "system:role:view"}},
	)
	agg := NewAggregator(dir, shared.DefaultReserved())

	p, err := agg.CurrentUser(context.Background(), userID)
	require.NoError(t, err)
	assert.False(t, p.IsSuperAdmin)
	assert.Len(t, p.PermissionCodes, 3)
	assert.True(t, p.HasAllPermissions([]string{"system:user:view", "system:role:view"}))
	assert.False(t, p.HasAllPermissions([]string{"system:role:delete"}))
}

func TestCurrentUserSuperRole(t *testing.T) {
	dir := newMockDirectory()
	userID := seedUser(dir, uuid.Nil,
		RoleGrant{Key: "admin", Name: "Administrator", DataScope: ScopeAll},
	)
	agg := NewAggregator(dir, shared.DefaultReserved())

	p, err := agg.CurrentUser(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, p.IsSuperAdmin)
	_, ok := p.PermissionCodes[shared.SuperPermissionCode]
	assert.True(t, ok)
	assert.Len(t, p.PermissionCodes, 1)
}

func TestCurrentUserUnknownSubject(t *testing.T) {
	agg := NewAggregator(newMockDirectory(), shared.DefaultReserved())

	_, err := agg.CurrentUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestCurrentUserStorageFailure(t *testing.T) {
	dir := newMockDirectory()
	userID := seedUser(dir, uuid.Nil)
	dir.rolesError = errors.New("connection reset")
	agg := NewAggregator(dir, shared.DefaultReserved())

	_, err := agg.CurrentUser(context.Background(), userID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestEvaluateAccessPermissionGateIsAllOf(t *testing.T) {
	m := Middleware{}
	p := &Principal{
		Roles: []RoleGrant{{Name: "Operations"}},
		PermissionCodes: map[string]struct{}{
			"a": {}, "b": {},
		},
	}

	assert.True(t, m.EvaluateAccess(p, nil, []string{"a", "b"}))
	assert.False(t, m.EvaluateAccess(p, nil, []string{"a", "b", "c"}))
}

func TestEvaluateAccessRoleGateIsAnyOf(t *testing.T) {
	m := Middleware{}
	p := &Principal{
		Roles:           []RoleGrant{{Name: "Operations"}},
		PermissionCodes: map[string]struct{}{},
	}

	assert.True(t, m.EvaluateAccess(p, []string{"Finance", "Operations"}, nil))
	assert.False(t, m.EvaluateAccess(p, []string{"Finance"}, nil))
}

func TestEvaluateAccessEmptyRequirementsAllow(t *testing.T) {
	m := Middleware{}
	assert.True(t, m.EvaluateAccess(nil, nil, nil))
}

func TestEvaluateAccessNilPrincipalDenied(t *testing.T) {
	m := Middleware{}
	assert.False(t, m.EvaluateAccess(nil, []string{"Operations"}, nil))
	assert.False(t, m.EvaluateAccess(nil, nil, []string{"a"}))
}

func TestEvaluateAccessSuperBypass(t *testing.T) {
	m := Middleware{}
	p := &Principal{
		IsSuperAdmin:    true,
		Roles:           []RoleGrant{{Key: "admin", Name: "Administrator"}},
		PermissionCodes: map[string]struct{}{shared.SuperPermissionCode: {}},
	}

	assert.True(t, m.EvaluateAccess(p, []string{"Finance"}, []string{"a", "b", "c"}))
}

func TestResolveScopeAll(t *testing.T) {
	dir := newMockDirectory()
	userID := seedUser(dir, uuid.Nil,
		RoleGrant{Key: "r1", DataScope: ScopeSelf},
		RoleGrant{Key: "r2", DataScope: ScopeAll},
	)
	r := NewResolver(dir, &mockWalker{})

	pred, err := r.Resolve(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, Unrestricted, pred.Kind)
}

func TestResolveHighestScopeWins(t *testing.T) {
	dept := uuid.New()
	dir := newMockDirectory()
	userID := seedUser(dir, dept,
		RoleGrant{Key: "r1", DataScope: ScopeSelf},
		RoleGrant{Key: "r2", DataScope: ScopeDepartment},
	)
	r := NewResolver(dir, &mockWalker{})

	pred, err := r.Resolve(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, DepartmentIn, pred.Kind)
	assert.Equal(t, []uuid.UUID{dept}, pred.DepartmentIDs)
}

func TestResolveDepartmentTree(t *testing.T) {
	dept := uuid.New()
	child := uuid.New()
	dir := newMockDirectory()
	userID := seedUser(dir, dept, RoleGrant{Key: "r", DataScope: ScopeDepartmentTree})
	walker := &mockWalker{descendants: map[uuid.UUID][]uuid.UUID{dept: {dept, child}}}
	r := NewResolver(dir, walker)

	pred, err := r.Resolve(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, DepartmentIn, pred.Kind)
	assert.ElementsMatch(t, []uuid.UUID{dept, child}, pred.DepartmentIDs)
}

func TestResolveCustomScope(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	dir := newMockDirectory()
	userID := seedUser(dir, uuid.Nil, RoleGrant{Key: "r", DataScope: ScopeCustom, DepartmentIDs: []uuid.UUID{a, b}})
	r := NewResolver(dir, &mockWalker{})

	pred, err := r.Resolve(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, DepartmentIn, pred.Kind)
	assert.ElementsMatch(t, []uuid.UUID{a, b}, pred.DepartmentIDs)
}

func TestResolveCustomScopeWithoutBindingsFallsBack(t *testing.T) {
	dir := newMockDirectory()
	userID := seedUser(dir, uuid.Nil, RoleGrant{Key: "r", DataScope: ScopeCustom})
	r := NewResolver(dir, &mockWalker{})

	pred, err := r.Resolve(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, OwnerEquals, pred.Kind)
	assert.Equal(t, userID, pred.OwnerID)
}

func TestResolveDepartmentScopeWithoutDepartmentFallsBack(t *testing.T) {
	dir := newMockDirectory()
	userID := seedUser(dir, uuid.Nil, RoleGrant{Key: "r", DataScope: ScopeDepartment})
	r := NewResolver(dir, &mockWalker{})

	pred, err := r.Resolve(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, OwnerEquals, pred.Kind)
	assert.Equal(t, userID, pred.OwnerID)
}

func TestResolveNoRolesDefaultsToOwner(t *testing.T) {
	dir := newMockDirectory()
	userID := seedUser(dir, uuid.Nil)
	r := NewResolver(dir, &mockWalker{})

	pred, err := r.Resolve(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, OwnerEquals, pred.Kind)
	assert.Equal(t, userID, pred.OwnerID)
}
