package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vantage-admin/vantage-admin/internal/shared"
)

// Aggregator assembles the request-scoped principal from current storage
// state. Nothing is cached between requests; a permission edit is visible on
// the very next request.
type Aggregator struct {
	dir      Directory
	reserved shared.Reserved
}

// NewAggregator constructs an Aggregator.
func NewAggregator(dir Directory, reserved shared.Reserved) *Aggregator {
	return &Aggregator{dir: dir, reserved: reserved}
}

// CurrentUser builds the principal for a verified subject. A subject that no
// longer resolves to a user yields ErrUnauthenticated.
func (a *Aggregator) CurrentUser(ctx context.Context, userID uuid.UUID) (*Principal, error) {
	var user *UserRecord
	var grants []RoleGrant

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = a.dir.GetUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		grants, err = a.dir.RolesForUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown subject %s", shared.ErrUnauthenticated, userID)
		}
		return nil, err
	}

	p := &Principal{
		UserID:          user.ID,
		Username:        user.Username,
		DepartmentID:    user.DepartmentID,
		Roles:           grants,
		PermissionCodes: make(map[string]struct{}),
	}
	for _, grant := range grants {
		if grant.Key == a.reserved.SuperRoleKey {
			p.IsSuperAdmin = true
		}
	}
	if p.IsSuperAdmin {
		p.PermissionCodes[shared.SuperPermissionCode] = struct{}{}
		return p, nil
	}
	for _, grant := range grants {
		for _, code := range grant.PermissionCodes {
			p.PermissionCodes[code] = struct{}{}
		}
	}
	return p, nil
}
