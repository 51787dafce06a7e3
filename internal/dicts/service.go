package dicts

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service handles dictionary business logic. Item reads go through the
// Redis cache; every item mutation invalidates the owning type's entry.
type Service struct {
	repo  Repository
	cache *ItemCache
}

// NewService builds Service instance.
func NewService(repo Repository, cache *ItemCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// ListTypes returns all dictionary types.
func (s *Service) ListTypes(ctx context.Context) ([]DictType, error) {
	return s.repo.ListTypes(ctx)
}

// GetType fetches a type by ID.
func (s *Service) GetType(ctx context.Context, id uuid.UUID) (*DictType, error) {
	return s.repo.GetType(ctx, id)
}

// CreateType inserts a new dictionary type.
func (s *Service) CreateType(ctx context.Context, input CreateDictType) (*DictType, error) {
	now := time.Now().UTC()
	t := &DictType{
		ID:        uuid.New(),
		Code:      strings.TrimSpace(input.Code),
		Name:      strings.TrimSpace(input.Name),
		Remark:    strings.TrimSpace(input.Remark),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertType(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateType applies a partial patch to a type.
func (s *Service) UpdateType(ctx context.Context, id uuid.UUID, patch UpdateDictType) (*DictType, error) {
	t, err := s.repo.GetType(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		t.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Remark != nil {
		t.Remark = strings.TrimSpace(*patch.Remark)
	}
	t.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateType(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// RemoveType deletes the type with all its items and drops the cache entry.
func (s *Service) RemoveType(ctx context.Context, id uuid.UUID) error {
	t, err := s.repo.GetType(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteType(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, t.Code)
	return nil
}

// Items returns the items of a type, read through the cache.
func (s *Service) Items(ctx context.Context, typeCode string) ([]DictItem, error) {
	if _, err := s.repo.FindTypeByCode(ctx, typeCode); err != nil {
		return nil, err
	}
	return s.cache.Items(ctx, typeCode, func(ctx context.Context) ([]DictItem, error) {
		return s.repo.ListItems(ctx, typeCode)
	})
}

// CreateItem inserts a new item under a type.
func (s *Service) CreateItem(ctx context.Context, typeCode string, input CreateDictItem) (*DictItem, error) {
	t, err := s.repo.FindTypeByCode(ctx, typeCode)
	if err != nil {
		return nil, err
	}
	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	now := time.Now().UTC()
	item := &DictItem{
		ID:        uuid.New(),
		TypeCode:  t.Code,
		Label:     strings.TrimSpace(input.Label),
		Value:     strings.TrimSpace(input.Value),
		Sort:      input.Sort,
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertItem(ctx, item); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, t.Code)
	return item, nil
}

// UpdateItem applies a partial patch to an item.
func (s *Service) UpdateItem(ctx context.Context, id uuid.UUID, patch UpdateDictItem) (*DictItem, error) {
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Label != nil {
		item.Label = strings.TrimSpace(*patch.Label)
	}
	if patch.Value != nil {
		item.Value = strings.TrimSpace(*patch.Value)
	}
	if patch.Sort != nil {
		item.Sort = *patch.Sort
	}
	if patch.IsActive != nil {
		item.IsActive = *patch.IsActive
	}
	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, item.TypeCode)
	return item, nil
}

// RemoveItem deletes an item and drops its type's cache entry.
func (s *Service) RemoveItem(ctx context.Context, id uuid.UUID) error {
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, item.TypeCode)
	return nil
}
