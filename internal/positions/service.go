package positions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vantage-admin/vantage-admin/internal/shared"
)

// Service handles position business logic.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all positions.
func (s *Service) List(ctx context.Context) ([]Position, error) {
	return s.repo.List(ctx)
}

// Get fetches a position by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Position, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a new position.
func (s *Service) Create(ctx context.Context, input CreatePosition) (*Position, error) {
	now := time.Now().UTC()
	pos := &Position{
		ID:        uuid.New(),
		Code:      strings.TrimSpace(input.Code),
		Name:      strings.TrimSpace(input.Name),
		Sort:      input.Sort,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, pos); err != nil {
		return nil, err
	}
	return pos, nil
}

// Update applies a partial patch.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch UpdatePosition) (*Position, error) {
	pos, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		pos.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Sort != nil {
		pos.Sort = *patch.Sort
	}
	pos.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, pos); err != nil {
		return nil, err
	}
	return pos, nil
}

// Remove deletes a position unless any user still holds it.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	count, err := s.repo.CountUsers(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: position is still assigned to %d user(s)", shared.ErrConflict, count)
	}
	return s.repo.Delete(ctx, id)
}
