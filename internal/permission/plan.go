package permission

import "github.com/google/uuid"

// DeletionPlan is the computed outcome of a cascade removal: API nodes are
// soft-deleted and survive as orphaned history rows, every other kind is
// hard-deleted. HardDelete preserves leaf-to-root order so partial execution
// stays referentially consistent.
type DeletionPlan struct {
	SoftDelete []uuid.UUID
	HardDelete []uuid.UUID
}

// All returns every node ID touched by the plan.
func (p DeletionPlan) All() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(p.SoftDelete)+len(p.HardDelete))
	out = append(out, p.SoftDelete...)
	out = append(out, p.HardDelete...)
	return out
}

// Empty reports whether the plan touches nothing.
func (p DeletionPlan) Empty() bool {
	return len(p.SoftDelete) == 0 && len(p.HardDelete) == 0
}

// PlanRemoval partitions the subtree rooted at id into the soft and hard
// deletion sets. Descendants returns post-order IDs, so the hard set is
// already deepest-first.
func PlanRemoval(t *Tree, id uuid.UUID) DeletionPlan {
	var plan DeletionPlan
	for _, nid := range t.Descendants(id) {
		node, ok := t.Get(nid)
		if !ok {
			continue
		}
		if node.Kind == KindAPI {
			plan.SoftDelete = append(plan.SoftDelete, nid)
		} else {
			plan.HardDelete = append(plan.HardDelete, nid)
		}
	}
	return plan
}
