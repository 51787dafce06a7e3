package departments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-admin/vantage-admin/internal/shared"
)

type mockRepo struct {
	depts     map[uuid.UUID]*Department
	userCount map[uuid.UUID]int

	// Error injection
	listError error
}

var _ Repository = (*mockRepo)(nil)

func newMockRepo() *mockRepo {
	return &mockRepo{
		depts:     make(map[uuid.UUID]*Department),
		userCount: make(map[uuid.UUID]int),
	}
}

func (m *mockRepo) List(ctx context.Context) ([]Department, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	out := make([]Department, 0, len(m.depts))
	for _, d := range m.depts {
		out = append(out, *d)
	}
	return out, nil
}

func (m *mockRepo) Get(ctx context.Context, id uuid.UUID) (*Department, error) {
	d, ok := m.depts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (m *mockRepo) Insert(ctx context.Context, dept *Department) error {
	m.depts[dept.ID] = dept
	return nil
}

func (m *mockRepo) Update(ctx context.Context, dept *Department) error {
	if _, ok := m.depts[dept.ID]; !ok {
		return shared.ErrNotFound
	}
	m.depts[dept.ID] = dept
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.depts[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.depts, id)
	return nil
}

func (m *mockRepo) CountUsers(ctx context.Context, id uuid.UUID) (int, error) {
	return m.userCount[id], nil
}

func seedDept(repo *mockRepo, name string, parent uuid.UUID, sort int) *Department {
	now := time.Now().UTC()
	d := &Department{ID: uuid.New(), ParentID: parent, Name: name, Sort: sort, CreatedAt: now, UpdatedAt: now}
	repo.depts[d.ID] = d
	return d
}

func TestCreateUnderMissingParent(t *testing.T) {
	svc := NewService(newMockRepo())

	_, err := svc.Create(context.Background(), CreateDepartment{ParentID: uuid.New(), Name: "Finance"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateRoot(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	dept, err := svc.Create(context.Background(), CreateDepartment{Name: "Head Office"})
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, dept.ParentID)
	assert.Contains(t, repo.depts, dept.ID)
}

func TestUpdateRefusesMoveIntoOwnSubtree(t *testing.T) {
	repo := newMockRepo()
	root := seedDept(repo, "Head Office", uuid.Nil, 1)
	child := seedDept(repo, "Finance", root.ID, 1)
	grandchild := seedDept(repo, "Payroll", child.ID, 1)
	svc := NewService(repo)

	_, err := svc.Update(context.Background(), child.ID, UpdateDepartment{ParentID: &grandchild.ID})
	assert.ErrorIs(t, err, shared.ErrConflict)

	_, err = svc.Update(context.Background(), child.ID, UpdateDepartment{ParentID: &child.ID})
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestUpdateReparentsToSibling(t *testing.T) {
	repo := newMockRepo()
	root := seedDept(repo, "Head Office", uuid.Nil, 1)
	a := seedDept(repo, "Finance", root.ID, 1)
	b := seedDept(repo, "Operations", root.ID, 2)
	svc := NewService(repo)

	updated, err := svc.Update(context.Background(), a.ID, UpdateDepartment{ParentID: &b.ID})
	require.NoError(t, err)
	assert.Equal(t, b.ID, updated.ParentID)
}

func TestRemoveRefusesChildren(t *testing.T) {
	repo := newMockRepo()
	root := seedDept(repo, "Head Office", uuid.Nil, 1)
	seedDept(repo, "Finance", root.ID, 1)
	svc := NewService(repo)

	err := svc.Remove(context.Background(), root.ID)
	assert.ErrorIs(t, err, shared.ErrConflict)
	assert.Contains(t, repo.depts, root.ID)
}

func TestRemoveRefusesAssignedUsers(t *testing.T) {
	repo := newMockRepo()
	leaf := seedDept(repo, "Payroll", uuid.Nil, 1)
	repo.userCount[leaf.ID] = 3
	svc := NewService(repo)

	err := svc.Remove(context.Background(), leaf.ID)
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestRemoveEmptyLeaf(t *testing.T) {
	repo := newMockRepo()
	leaf := seedDept(repo, "Payroll", uuid.Nil, 1)
	svc := NewService(repo)

	require.NoError(t, svc.Remove(context.Background(), leaf.ID))
	assert.NotContains(t, repo.depts, leaf.ID)
}

func TestDescendantIDsIncludesRootAndSubtree(t *testing.T) {
	repo := newMockRepo()
	root := seedDept(repo, "Head Office", uuid.Nil, 1)
	child := seedDept(repo, "Finance", root.ID, 1)
	grandchild := seedDept(repo, "Payroll", child.ID, 1)
	seedDept(repo, "Operations", uuid.Nil, 2)
	svc := NewService(repo)

	ids, err := svc.DescendantIDs(context.Background(), root.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{root.ID, child.ID, grandchild.ID}, ids)
}

func TestDescendantIDsUnknownRoot(t *testing.T) {
	svc := NewService(newMockRepo())

	_, err := svc.DescendantIDs(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDescendantIDsTerminatesOnCycle(t *testing.T) {
	repo := newMockRepo()
	a := seedDept(repo, "A", uuid.Nil, 1)
	b := seedDept(repo, "B", a.ID, 1)
	// Corrupt parent pointer forming a loop.
	repo.depts[a.ID].ParentID = b.ID
	svc := NewService(repo)

	ids, err := svc.DescendantIDs(context.Background(), a.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, ids)
}

func TestTreeNestsAndOrdersChildren(t *testing.T) {
	repo := newMockRepo()
	root := seedDept(repo, "Head Office", uuid.Nil, 1)
	seedDept(repo, "Operations", root.ID, 2)
	seedDept(repo, "Finance", root.ID, 1)
	svc := NewService(repo)

	tree, err := svc.Tree(context.Background())
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 2)
	assert.Equal(t, "Finance", tree[0].Children[0].Name)
	assert.Equal(t, "Operations", tree[0].Children[1].Name)
}
