package rbac

import (
	"context"

	"github.com/google/uuid"
)

// PredicateKind tags the row-visibility predicate variants.
type PredicateKind int

const (
	// Unrestricted places no restriction on visible rows.
	Unrestricted PredicateKind = iota
	// OwnerEquals restricts to rows owned by one user.
	OwnerEquals
	// DepartmentIn restricts to rows owned by a department set.
	DepartmentIn
)

// Predicate is the data structure the query layer translates into a WHERE
// clause. It is never executable code.
type Predicate struct {
	Kind          PredicateKind
	OwnerID       uuid.UUID
	DepartmentIDs []uuid.UUID
}

// Resolver turns a user's highest-privilege role into a row-visibility
// predicate for department-scoped queries.
type Resolver struct {
	dir   Directory
	depts DepartmentWalker
}

// NewResolver constructs a Resolver.
func NewResolver(dir Directory, depts DepartmentWalker) *Resolver {
	return &Resolver{dir: dir, depts: depts}
}

// Resolve reads the user's roles and produces the predicate. The effective
// role is the one with the numerically highest data scope; on a tie the
// first encountered wins.
func (r *Resolver) Resolve(ctx context.Context, userID uuid.UUID) (Predicate, error) {
	grants, err := r.dir.RolesForUser(ctx, userID)
	if err != nil {
		return Predicate{}, err
	}

	var effective *RoleGrant
	for i := range grants {
		if effective == nil || grants[i].DataScope > effective.DataScope {
			effective = &grants[i]
		}
	}
	if effective == nil {
		return Predicate{Kind: OwnerEquals, OwnerID: userID}, nil
	}

	switch effective.DataScope {
	case ScopeAll:
		return Predicate{Kind: Unrestricted}, nil

	case ScopeCustom:
		if len(effective.DepartmentIDs) == 0 {
			return Predicate{Kind: OwnerEquals, OwnerID: userID}, nil
		}
		return Predicate{Kind: DepartmentIn, DepartmentIDs: effective.DepartmentIDs}, nil

	case ScopeDepartmentTree:
		user, err := r.dir.GetUser(ctx, userID)
		if err != nil {
			return Predicate{}, err
		}
		if user.DepartmentID == uuid.Nil {
			return Predicate{Kind: OwnerEquals, OwnerID: userID}, nil
		}
		ids, err := r.depts.DescendantIDs(ctx, user.DepartmentID)
		if err != nil {
			return Predicate{}, err
		}
		return Predicate{Kind: DepartmentIn, DepartmentIDs: ids}, nil

	case ScopeDepartment:
		user, err := r.dir.GetUser(ctx, userID)
		if err != nil {
			return Predicate{}, err
		}
		if user.DepartmentID == uuid.Nil {
			return Predicate{Kind: OwnerEquals, OwnerID: userID}, nil
		}
		return Predicate{Kind: DepartmentIn, DepartmentIDs: []uuid.UUID{user.DepartmentID}}, nil

	default:
		return Predicate{Kind: OwnerEquals, OwnerID: userID}, nil
	}
}
