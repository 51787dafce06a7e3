package permission

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(code string, kind Kind, parent uuid.UUID) Node {
	now := time.Now().UTC()
	return Node{
		ID:        uuid.New(),
		Code:      code,
		Name:      code,
		Kind:      kind,
		Origin:    OriginUser,
		ParentID:  parent,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// fixtureTree builds:
//
//	dir:system
//	└── menu:system:user
//	    ├── btn:system:user:create
//	    ├── api:system:user:query
//	    └── api:system:user:delete
func fixtureTree() (nodes []Node, dir, menu, btn, apiQuery, apiDelete Node) {
	dir = node("dir:system", KindDirectory, uuid.Nil)
	menu = node("menu:system:user", KindMenu, dir.ID)
	btn = node("btn:system:user:create", KindButton, menu.ID)
	apiQuery = node("api:system:user:query", KindAPI, menu.ID)
	apiDelete = node("api:system:user:delete", KindAPI, menu.ID)
	nodes = []Node{dir, menu, btn, apiQuery, apiDelete}
	return
}

func TestTreeDescendantsPostOrder(t *testing.T) {
	nodes, dir, menu, btn, apiQuery, apiDelete := fixtureTree()
	tree := NewTree(nodes, uuid.Nil)

	order := tree.Descendants(dir.ID)
	require.Len(t, order, 5)

	pos := make(map[uuid.UUID]int, len(order))
	for i, id := range order {
		pos[id] = i
	}

	// Every child precedes its parent.
	assert.Less(t, pos[btn.ID], pos[menu.ID])
	assert.Less(t, pos[apiQuery.ID], pos[menu.ID])
	assert.Less(t, pos[apiDelete.ID], pos[menu.ID])
	assert.Less(t, pos[menu.ID], pos[dir.ID])
	assert.Equal(t, dir.ID, order[len(order)-1])
}

func TestTreeDescendantsUnknownID(t *testing.T) {
	nodes, _, _, _, _, _ := fixtureTree()
	tree := NewTree(nodes, uuid.Nil)

	assert.Nil(t, tree.Descendants(uuid.New()))
}

func TestTreeExcludesSoftDeleted(t *testing.T) {
	nodes, dir, _, _, apiQuery, _ := fixtureTree()
	deletedAt := time.Now().UTC()
	for i := range nodes {
		if nodes[i].ID == apiQuery.ID {
			nodes[i].DeletedAt = &deletedAt
		}
	}
	tree := NewTree(nodes, uuid.Nil)

	_, ok := tree.Get(apiQuery.ID)
	assert.False(t, ok)
	assert.Len(t, tree.Descendants(dir.ID), 4)
}

func TestTreeCycleTerminates(t *testing.T) {
	a := node("dir:a", KindDirectory, uuid.Nil)
	b := node("dir:b", KindDirectory, a.ID)
	// Corrupt parent pointer: a now points back at b.
	a.ParentID = b.ID
	tree := NewTree([]Node{a, b}, uuid.Nil)

	order := tree.Descendants(a.ID)
	assert.Len(t, order, 2)

	chain := tree.AncestorChain(b.ID)
	assert.Len(t, chain, 1)
}

func TestTreeChildrenSortedByCode(t *testing.T) {
	nodes, _, menu, _, _, _ := fixtureTree()
	tree := NewTree(nodes, uuid.Nil)

	children := tree.Children(menu.ID)
	require.Len(t, children, 3)
	assert.Equal(t, "api:system:user:delete", children[0].Code)
	assert.Equal(t, "api:system:user:query", children[1].Code)
	assert.Equal(t, "btn:system:user:create", children[2].Code)
}

func TestTreeBuildNestedView(t *testing.T) {
	nodes, dir, menu, _, _, _ := fixtureTree()
	tree := NewTree(nodes, uuid.Nil)

	roots := tree.Build()
	require.Len(t, roots, 1)
	assert.Equal(t, dir.Code, roots[0].Code)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, menu.Code, roots[0].Children[0].Code)
	assert.Len(t, roots[0].Children[0].Children, 3)
}

func TestPlanRemovalPartitionsByKind(t *testing.T) {
	nodes, dir, menu, btn, apiQuery, apiDelete := fixtureTree()
	tree := NewTree(nodes, uuid.Nil)

	plan := PlanRemoval(tree, dir.ID)
	assert.ElementsMatch(t, []uuid.UUID{apiQuery.ID, apiDelete.ID}, plan.SoftDelete)
	assert.ElementsMatch(t, []uuid.UUID{dir.ID, menu.ID, btn.ID}, plan.HardDelete)

	// Hard deletes must stay leaf-to-root.
	pos := make(map[uuid.UUID]int)
	for i, id := range plan.HardDelete {
		pos[id] = i
	}
	assert.Less(t, pos[btn.ID], pos[menu.ID])
	assert.Less(t, pos[menu.ID], pos[dir.ID])
}

func TestPlanRemovalLeafButton(t *testing.T) {
	nodes, _, _, btn, _, _ := fixtureTree()
	tree := NewTree(nodes, uuid.Nil)

	plan := PlanRemoval(tree, btn.ID)
	assert.Empty(t, plan.SoftDelete)
	assert.Equal(t, []uuid.UUID{btn.ID}, plan.HardDelete)
	assert.False(t, plan.Empty())
}
