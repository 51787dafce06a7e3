package departments

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vantage-admin/vantage-admin/internal/shared"
)

// Service handles department business logic. Its DescendantIDs walk backs the
// data-scope resolver.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all departments flat.
func (s *Service) List(ctx context.Context) ([]Department, error) {
	return s.repo.List(ctx)
}

// Tree returns the nested department view.
func (s *Service) Tree(ctx context.Context) ([]*TreeNode, error) {
	depts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	index := buildIndex(depts)
	visited := make(map[uuid.UUID]struct{})
	var build func(id uuid.UUID) *TreeNode
	build = func(id uuid.UUID) *TreeNode {
		if _, seen := visited[id]; seen {
			return nil
		}
		visited[id] = struct{}{}
		node := &TreeNode{Department: *index.byID[id]}
		for _, child := range index.children[id] {
			if c := build(child); c != nil {
				node.Children = append(node.Children, c)
			}
		}
		return node
	}
	var roots []*TreeNode
	for _, id := range index.children[uuid.Nil] {
		if n := build(id); n != nil {
			roots = append(roots, n)
		}
	}
	return roots, nil
}

// Get fetches a department by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Department, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a department under an existing parent.
func (s *Service) Create(ctx context.Context, input CreateDepartment) (*Department, error) {
	if input.ParentID != uuid.Nil {
		if _, err := s.repo.Get(ctx, input.ParentID); err != nil {
			return nil, err
		}
	}
	now := time.Now().UTC()
	dept := &Department{
		ID:        uuid.New(),
		ParentID:  input.ParentID,
		Name:      input.Name,
		Sort:      input.Sort,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, dept); err != nil {
		return nil, err
	}
	return dept, nil
}

// Update applies a partial patch. Re-parenting under the department's own
// subtree is refused, it would sever the tree.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch UpdateDepartment) (*Department, error) {
	dept, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.ParentID != nil && *patch.ParentID != dept.ParentID {
		if *patch.ParentID != uuid.Nil {
			if _, err := s.repo.Get(ctx, *patch.ParentID); err != nil {
				return nil, err
			}
			descendants, err := s.DescendantIDs(ctx, id)
			if err != nil {
				return nil, err
			}
			for _, did := range descendants {
				if did == *patch.ParentID {
					return nil, fmt.Errorf("%w: cannot move department under its own subtree", shared.ErrConflict)
				}
			}
		}
		dept.ParentID = *patch.ParentID
	}
	if patch.Name != nil {
		dept.Name = *patch.Name
	}
	if patch.Sort != nil {
		dept.Sort = *patch.Sort
	}
	dept.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, dept); err != nil {
		return nil, err
	}
	return dept, nil
}

// Remove deletes a department that has no children and no assigned users.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	depts, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	for _, d := range depts {
		if d.ParentID == id {
			return fmt.Errorf("%w: department has child departments", shared.ErrConflict)
		}
	}
	count, err := s.repo.CountUsers(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: department has assigned users", shared.ErrConflict)
	}
	return s.repo.Delete(ctx, id)
}

// DescendantIDs returns root and every department below it. The walk carries
// a visited set so a parent-pointer cycle in bad data terminates instead of
// looping.
func (s *Service) DescendantIDs(ctx context.Context, root uuid.UUID) ([]uuid.UUID, error) {
	if _, err := s.repo.Get(ctx, root); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		return nil, err
	}
	depts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	index := buildIndex(depts)
	visited := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	var walk func(uuid.UUID)
	walk = func(id uuid.UUID) {
		if _, seen := visited[id]; seen {
			return
		}
		visited[id] = struct{}{}
		out = append(out, id)
		for _, child := range index.children[id] {
			walk(child)
		}
	}
	walk(root)
	return out, nil
}

type deptIndex struct {
	byID     map[uuid.UUID]*Department
	children map[uuid.UUID][]uuid.UUID
}

func buildIndex(depts []Department) deptIndex {
	index := deptIndex{
		byID:     make(map[uuid.UUID]*Department, len(depts)),
		children: make(map[uuid.UUID][]uuid.UUID, len(depts)),
	}
	for i := range depts {
		index.byID[depts[i].ID] = &depts[i]
	}
	for id, d := range index.byID {
		index.children[d.ParentID] = append(index.children[d.ParentID], id)
	}
	for parent := range index.children {
		ids := index.children[parent]
		sort.Slice(ids, func(i, j int) bool {
			a, b := index.byID[ids[i]], index.byID[ids[j]]
			if a.Sort != b.Sort {
				return a.Sort < b.Sort
			}
			return a.Name < b.Name
		})
	}
	return index
}
