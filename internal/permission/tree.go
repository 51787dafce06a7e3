package permission

import (
	"sort"

	"github.com/google/uuid"
)

// Tree is an in-memory arena of permission nodes keyed by ID plus a
// parent-to-children adjacency index. All recursive walks carry a visited set
// and treat re-visitation as a safe stop, so malformed parent pointers never
// loop.
type Tree struct {
	root     uuid.UUID
	nodes    map[uuid.UUID]*Node
	children map[uuid.UUID][]uuid.UUID
}

// NewTree indexes the given nodes. Soft-deleted nodes are excluded from the
// arena entirely; they are invisible to traversal.
func NewTree(nodes []Node, root uuid.UUID) *Tree {
	t := &Tree{
		root:     root,
		nodes:    make(map[uuid.UUID]*Node, len(nodes)),
		children: make(map[uuid.UUID][]uuid.UUID, len(nodes)),
	}
	for i := range nodes {
		n := &nodes[i]
		if n.Deleted() {
			continue
		}
		t.nodes[n.ID] = n
	}
	for id, n := range t.nodes {
		t.children[n.ParentID] = append(t.children[n.ParentID], id)
	}
	return t
}

// Get returns the node for id if it is part of the arena.
func (t *Tree) Get(id uuid.UUID) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Children returns the direct children of id sorted by code.
func (t *Tree) Children(id uuid.UUID) []*Node {
	ids := t.children[id]
	out := make([]*Node, 0, len(ids))
	for _, cid := range ids {
		out = append(out, t.nodes[cid])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Descendants collects id and every node reachable below it in post-order:
// the deepest descendants come first and id itself is last. The ordering is
// what lets cascade deletion run leaf-to-root without violating referential
// constraints.
func (t *Tree) Descendants(id uuid.UUID) []uuid.UUID {
	if _, ok := t.nodes[id]; !ok {
		return nil
	}
	visited := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	var walk func(uuid.UUID)
	walk = func(cur uuid.UUID) {
		if _, seen := visited[cur]; seen {
			return
		}
		visited[cur] = struct{}{}
		for _, child := range t.children[cur] {
			walk(child)
		}
		out = append(out, cur)
	}
	walk(id)
	return out
}

// AncestorChain walks parent pointers from id up to the root sentinel,
// returning the chain nearest-first. A cycle in parent pointers terminates
// the walk rather than erroring.
func (t *Tree) AncestorChain(id uuid.UUID) []*Node {
	visited := map[uuid.UUID]struct{}{id: {}}
	var chain []*Node
	cur, ok := t.nodes[id]
	if !ok {
		return nil
	}
	for cur.ParentID != t.root {
		parent, ok := t.nodes[cur.ParentID]
		if !ok {
			break
		}
		if _, seen := visited[parent.ID]; seen {
			break
		}
		visited[parent.ID] = struct{}{}
		chain = append(chain, parent)
		cur = parent
	}
	return chain
}

// Build assembles the nested tree view starting from the root sentinel.
func (t *Tree) Build() []*TreeNode {
	visited := make(map[uuid.UUID]struct{})
	var build func(id uuid.UUID) *TreeNode
	build = func(id uuid.UUID) *TreeNode {
		if _, seen := visited[id]; seen {
			return nil
		}
		visited[id] = struct{}{}
		n := t.nodes[id]
		tn := &TreeNode{Node: *n}
		for _, child := range t.Children(id) {
			if c := build(child.ID); c != nil {
				tn.Children = append(tn.Children, c)
			}
		}
		return tn
	}
	var roots []*TreeNode
	for _, n := range t.Children(t.root) {
		if tn := build(n.ID); tn != nil {
			roots = append(roots, tn)
		}
	}
	return roots
}
