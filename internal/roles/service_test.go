package roles

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-admin/vantage-admin/internal/rbac"
	"github.com/vantage-admin/vantage-admin/internal/shared"
)

type mockRepo struct {
	roles       map[uuid.UUID]*Role
	permissions map[uuid.UUID][]uuid.UUID
	departments map[uuid.UUID][]uuid.UUID

	// Error injection
	getError    error
	insertError error

	attached []uuid.UUID
	detached []uuid.UUID
}

var _ Repository = (*mockRepo)(nil)

func newMockRepo() *mockRepo {
	return &mockRepo{
		roles:       make(map[uuid.UUID]*Role),
		permissions: make(map[uuid.UUID][]uuid.UUID),
		departments: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (m *mockRepo) List(ctx context.Context) ([]Role, error) {
	out := make([]Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockRepo) Get(ctx context.Context, id uuid.UUID) (*Role, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	r, ok := m.roles[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *mockRepo) Insert(ctx context.Context, role *Role) error {
	if m.insertError != nil {
		return m.insertError
	}
	m.roles[role.ID] = role
	return nil
}

func (m *mockRepo) Update(ctx context.Context, role *Role) error {
	if _, ok := m.roles[role.ID]; !ok {
		return shared.ErrNotFound
	}
	m.roles[role.ID] = role
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.roles[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.roles, id)
	return nil
}

func (m *mockRepo) ListPermissionIDs(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error) {
	return m.permissions[roleID], nil
}

func (m *mockRepo) AttachPermission(ctx context.Context, roleID, permissionID uuid.UUID) error {
	m.permissions[roleID] = append(m.permissions[roleID], permissionID)
	m.attached = append(m.attached, permissionID)
	return nil
}

func (m *mockRepo) DetachPermission(ctx context.Context, roleID, permissionID uuid.UUID) error {
	kept := m.permissions[roleID][:0]
	for _, id := range m.permissions[roleID] {
		if id != permissionID {
			kept = append(kept, id)
		}
	}
	m.permissions[roleID] = kept
	m.detached = append(m.detached, permissionID)
	return nil
}

func (m *mockRepo) ListDepartmentIDs(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error) {
	return m.departments[roleID], nil
}

func (m *mockRepo) AttachDepartment(ctx context.Context, roleID, departmentID uuid.UUID) error {
	m.departments[roleID] = append(m.departments[roleID], departmentID)
	return nil
}

func (m *mockRepo) DetachDepartment(ctx context.Context, roleID, departmentID uuid.UUID) error {
	kept := m.departments[roleID][:0]
	for _, id := range m.departments[roleID] {
		if id != departmentID {
			kept = append(kept, id)
		}
	}
	m.departments[roleID] = kept
	return nil
}

func seedRole(repo *mockRepo, key string, scope rbac.DataScope) *Role {
	now := time.Now().UTC()
	role := &Role{ID: uuid.New(), Key: key, Name: key, DataScope: scope, CreatedAt: now, UpdatedAt: now}
	repo.roles[role.ID] = role
	return role
}

func newTestService(repo *mockRepo) *Service {
	return NewService(repo, shared.DefaultReserved())
}

func TestCreateRejectsReservedKey(t *testing.T) {
	svc := newTestService(newMockRepo())

	_, err := svc.Create(context.Background(), CreateRole{Key: "admin", Name: "Administrator", DataScope: rbac.ScopeAll})
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestCreateTrimsFields(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	role, err := svc.Create(context.Background(), CreateRole{Key: " ops ", Name: " Operations ", DataScope: rbac.ScopeSelf})
	require.NoError(t, err)
	assert.Equal(t, "ops", role.Key)
	assert.Equal(t, "Operations", role.Name)
	assert.Contains(t, repo.roles, role.ID)
}

func TestUpdateSuperRoleRejected(t *testing.T) {
	repo := newMockRepo()
	super := seedRole(repo, "admin", rbac.ScopeAll)
	svc := newTestService(repo)

	name := "Renamed"
	_, err := svc.Update(context.Background(), super.ID, UpdateRole{Name: &name})
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestUpdateAppliesPartialPatch(t *testing.T) {
	repo := newMockRepo()
	role := seedRole(repo, "ops", rbac.ScopeSelf)
	svc := newTestService(repo)

	scope := rbac.ScopeDepartmentTree
	updated, err := svc.Update(context.Background(), role.ID, UpdateRole{DataScope: &scope})
	require.NoError(t, err)
	assert.Equal(t, rbac.ScopeDepartmentTree, updated.DataScope)
	assert.Equal(t, "ops", updated.Name)
}

func TestRemoveSuperRoleRejected(t *testing.T) {
	repo := newMockRepo()
	super := seedRole(repo, "admin", rbac.ScopeAll)
	svc := newTestService(repo)

	err := svc.Remove(context.Background(), super.ID)
	assert.ErrorIs(t, err, shared.ErrConflict)
	assert.Contains(t, repo.roles, super.ID)
}

func TestRemoveUnknownRole(t *testing.T) {
	svc := newTestService(newMockRepo())

	err := svc.Remove(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSetPermissionsDiffsBindings(t *testing.T) {
	repo := newMockRepo()
	role := seedRole(repo, "ops", rbac.ScopeSelf)
	keep, drop, add := uuid.New(), uuid.New(), uuid.New()
	repo.permissions[role.ID] = []uuid.UUID{keep, drop}
	svc := newTestService(repo)

	err := svc.SetPermissions(context.Background(), role.ID, []uuid.UUID{keep, add})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{add}, repo.attached)
	assert.Equal(t, []uuid.UUID{drop}, repo.detached)
	assert.ElementsMatch(t, []uuid.UUID{keep, add}, repo.permissions[role.ID])
}

func TestSetPermissionsSuperRoleRejected(t *testing.T) {
	repo := newMockRepo()
	super := seedRole(repo, "admin", rbac.ScopeAll)
	svc := newTestService(repo)

	err := svc.SetPermissions(context.Background(), super.ID, []uuid.UUID{uuid.New()})
	assert.ErrorIs(t, err, shared.ErrConflict)
	assert.Empty(t, repo.attached)
}

func TestSetDepartmentsRequiresCustomScope(t *testing.T) {
	repo := newMockRepo()
	role := seedRole(repo, "ops", rbac.ScopeDepartment)
	svc := newTestService(repo)

	err := svc.SetDepartments(context.Background(), role.ID, []uuid.UUID{uuid.New()})
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestSetDepartmentsReplacesSet(t *testing.T) {
	repo := newMockRepo()
	role := seedRole(repo, "regional", rbac.ScopeCustom)
	old := uuid.New()
	repo.departments[role.ID] = []uuid.UUID{old}
	next := uuid.New()
	svc := newTestService(repo)

	err := svc.SetDepartments(context.Background(), role.ID, []uuid.UUID{next})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{next}, repo.departments[role.ID])
}
