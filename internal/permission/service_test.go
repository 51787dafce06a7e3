package permission

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantage-admin/vantage-admin/internal/shared"
)

type mockRepo struct {
	nodes map[uuid.UUID]*Node

	// Error injection
	listError  error
	applyError error

	appliedPlans []DeletionPlan
}

func newMockRepo(seed ...Node) *mockRepo {
	m := &mockRepo{nodes: make(map[uuid.UUID]*Node)}
	for i := range seed {
		n := seed[i]
		m.nodes[n.ID] = &n
	}
	return m
}

func (m *mockRepo) Get(ctx context.Context, id uuid.UUID) (*Node, error) {
	n, ok := m.nodes[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *n
	return &clone, nil
}

func (m *mockRepo) FindByCode(ctx context.Context, code string) (*Node, error) {
	for _, n := range m.nodes {
		if n.Code == code && !n.Deleted() {
			clone := *n
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepo) Children(ctx context.Context, parentID uuid.UUID) ([]Node, error) {
	var out []Node
	for _, n := range m.nodes {
		if n.ParentID == parentID && !n.Deleted() {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (m *mockRepo) ListAll(ctx context.Context, includeDeleted bool) ([]Node, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	var out []Node
	for _, n := range m.nodes {
		if !includeDeleted && n.Deleted() {
			continue
		}
		out = append(out, *n)
	}
	return out, nil
}

func (m *mockRepo) ListByKinds(ctx context.Context, kinds []Kind, includeDeleted bool) ([]Node, error) {
	all, err := m.ListAll(ctx, includeDeleted)
	if err != nil {
		return nil, err
	}
	want := make(map[Kind]struct{}, len(kinds))
	for _, k := range kinds {
		want[k] = struct{}{}
	}
	var out []Node
	for _, n := range all {
		if _, ok := want[n.Kind]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockRepo) Insert(ctx context.Context, node *Node) error {
	for _, n := range m.nodes {
		if n.Code == node.Code && !n.Deleted() {
			return shared.ErrConflict
		}
	}
	clone := *node
	m.nodes[node.ID] = &clone
	return nil
}

func (m *mockRepo) Update(ctx context.Context, node *Node) error {
	if _, ok := m.nodes[node.ID]; !ok {
		return shared.ErrNotFound
	}
	clone := *node
	m.nodes[node.ID] = &clone
	return nil
}

func (m *mockRepo) Reactivate(ctx context.Context, id, parentID uuid.UUID) error {
	n, ok := m.nodes[id]
	if !ok {
		return shared.ErrNotFound
	}
	n.DeletedAt = nil
	n.ParentID = parentID
	return nil
}

func (m *mockRepo) ApplyDeletionPlan(ctx context.Context, plan DeletionPlan, at time.Time) error {
	if m.applyError != nil {
		return m.applyError
	}
	m.appliedPlans = append(m.appliedPlans, plan)
	for _, id := range plan.SoftDelete {
		if n, ok := m.nodes[id]; ok {
			deleted := at
			n.DeletedAt = &deleted
			n.ParentID = uuid.Nil
		}
	}
	for _, id := range plan.HardDelete {
		delete(m.nodes, id)
	}
	return nil
}

var _ Repository = (*mockRepo)(nil)

func newTestService(repo Repository) *Service {
	return NewService(repo, shared.DefaultReserved(), nil, slog.Default())
}

func TestCreateRejectsAPIKind(t *testing.T) {
	svc := newTestService(newMockRepo())

	_, err := svc.Create(context.Background(), "tester", CreateNode{
		Code: "api:system:user:query",
		Name: "query users",
		Kind: KindAPI,
	})
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	existing := node("dir:system", KindDirectory, uuid.Nil)
	svc := newTestService(newMockRepo(existing))

	_, err := svc.Create(context.Background(), "tester", CreateNode{
		Code: "dir:system",
		Name: "System",
		Kind: KindDirectory,
	})
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestCreateParentKindRules(t *testing.T) {
	dir := node("dir:system", KindDirectory, uuid.Nil)
	menu := node("menu:system:user", KindMenu, dir.ID)
	svc := newTestService(newMockRepo(dir, menu))

	cases := []struct {
		name    string
		kind    Kind
		parent  uuid.UUID
		wantErr bool
	}{
		{"directory under root", KindDirectory, uuid.Nil, false},
		{"menu under directory", KindMenu, dir.ID, false},
		{"menu under menu", KindMenu, menu.ID, true},
		{"button under menu", KindButton, menu.ID, false},
		{"button under directory", KindButton, dir.ID, true},
		{"button under root", KindButton, uuid.Nil, true},
		{"directory under menu", KindDirectory, menu.ID, true},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "tester", CreateNode{
				Code:     "case" + string(rune('a'+i)),
				Name:     tc.name,
				Kind:     tc.kind,
				ParentID: tc.parent,
			})
			if tc.wantErr {
				assert.ErrorIs(t, err, shared.ErrConflict)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateMenuGetsAccessActionAndMeta(t *testing.T) {
	dir := node("dir:system", KindDirectory, uuid.Nil)
	svc := newTestService(newMockRepo(dir))

	created, err := svc.Create(context.Background(), "tester", CreateNode{
		Code:     "menu:system:user",
		Name:     "Users",
		Kind:     KindMenu,
		ParentID: dir.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, ActionAccess, created.Action)
	require.NotNil(t, created.Menu)
	assert.Equal(t, OriginUser, created.Origin)
}

func TestCreateMissingParent(t *testing.T) {
	svc := newTestService(newMockRepo())

	_, err := svc.Create(context.Background(), "tester", CreateNode{
		Code:     "menu:system:user",
		Name:     "Users",
		Kind:     KindMenu,
		ParentID: uuid.New(),
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateRejectsAPINode(t *testing.T) {
	dir := node("dir:system", KindDirectory, uuid.Nil)
	menu := node("menu:system:user", KindMenu, dir.ID)
	api := node("api:system:user:query", KindAPI, menu.ID)
	svc := newTestService(newMockRepo(dir, menu, api))

	newName := "renamed"
	_, err := svc.Update(context.Background(), "tester", api.ID, UpdateNode{Name: &newName})
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestUpdateRefusesMoveIntoOwnSubtree(t *testing.T) {
	outer := node("dir:system", KindDirectory, uuid.Nil)
	inner := node("dir:system:security", KindDirectory, outer.ID)
	repo := newMockRepo(outer, inner)
	svc := newTestService(repo)

	_, err := svc.Update(context.Background(), "tester", outer.ID, UpdateNode{ParentID: &inner.ID})
	assert.ErrorIs(t, err, shared.ErrConflict)

	_, err = svc.Update(context.Background(), "tester", outer.ID, UpdateNode{ParentID: &outer.ID})
	assert.ErrorIs(t, err, shared.ErrConflict)

	// The hierarchy is intact and both directories remain visible.
	roots, err := svc.Tree(context.Background())
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, outer.ID, roots[0].ID)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, inner.ID, roots[0].Children[0].ID)
}

func TestUpdateReparentsToSiblingDirectory(t *testing.T) {
	a := node("dir:system", KindDirectory, uuid.Nil)
	b := node("dir:reports", KindDirectory, uuid.Nil)
	child := node("dir:system:security", KindDirectory, a.ID)
	repo := newMockRepo(a, b, child)
	svc := newTestService(repo)

	updated, err := svc.Update(context.Background(), "tester", child.ID, UpdateNode{ParentID: &b.ID})
	require.NoError(t, err)
	assert.Equal(t, b.ID, updated.ParentID)
}

func TestUpdateMenuActionImmutable(t *testing.T) {
	dir := node("dir:system", KindDirectory, uuid.Nil)
	menu := node("menu:system:user", KindMenu, dir.ID)
	menu.Action = ActionAccess
	svc := newTestService(newMockRepo(dir, menu))

	other := "export"
	updated, err := svc.Update(context.Background(), "tester", menu.ID, UpdateNode{Action: &other})
	require.NoError(t, err)
	assert.Equal(t, ActionAccess, updated.Action)
}

func TestCascadeRemoveSoftDeletesAPIsHardDeletesRest(t *testing.T) {
	nodes, dir, menu, btn, apiQuery, apiDelete := fixtureTree()
	repo := newMockRepo(nodes...)
	svc := newTestService(repo)

	require.NoError(t, svc.CascadeRemove(context.Background(), "tester", dir.ID))
	require.Len(t, repo.appliedPlans, 1)

	plan := repo.appliedPlans[0]
	assert.ElementsMatch(t, []uuid.UUID{apiQuery.ID, apiDelete.ID}, plan.SoftDelete)
	assert.ElementsMatch(t, []uuid.UUID{dir.ID, menu.ID, btn.ID}, plan.HardDelete)

	// APIs survive as orphaned soft-deleted rows.
	stale := repo.nodes[apiQuery.ID]
	require.NotNil(t, stale)
	assert.True(t, stale.Deleted())
	assert.Equal(t, uuid.Nil, stale.ParentID)

	// Structural nodes are gone.
	_, err := svc.Get(context.Background(), menu.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCascadeRemoveUnknownTarget(t *testing.T) {
	svc := newTestService(newMockRepo())
	err := svc.CascadeRemove(context.Background(), "tester", uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRemoveManyRejectsAPITargets(t *testing.T) {
	nodes, _, _, btn, apiQuery, _ := fixtureTree()
	repo := newMockRepo(nodes...)
	svc := newTestService(repo)

	err := svc.RemoveMany(context.Background(), "tester", []uuid.UUID{btn.ID, apiQuery.ID})
	assert.ErrorIs(t, err, shared.ErrConflict)
	// Nothing was removed: the batch is validated up front.
	assert.Empty(t, repo.appliedPlans)
}

func TestRemoveManyCascadesEachTarget(t *testing.T) {
	nodes, _, _, btn, _, _ := fixtureTree()
	extra := node("dir:reports", KindDirectory, uuid.Nil)
	repo := newMockRepo(append(nodes, extra)...)
	svc := newTestService(repo)

	require.NoError(t, svc.RemoveMany(context.Background(), "tester", []uuid.UUID{btn.ID, extra.ID}))
	assert.Len(t, repo.appliedPlans, 2)
}
