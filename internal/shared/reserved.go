package shared

import "github.com/google/uuid"

// Reserved groups the protected identifiers the platform treats specially.
// They are injected into services and guards at construction rather than
// referenced as scattered literals.
type Reserved struct {
	// SuperRoleKey is the role key whose holders bypass all permission checks.
	SuperRoleKey string
	// SuperUsername is the account that cannot be created, edited or deleted
	// through the regular user endpoints.
	SuperUsername string
	// RootParentID is the sentinel parent of top-level permission nodes and
	// departments.
	RootParentID uuid.UUID
}

// SuperPermissionCode is the wildcard code reported for super administrators.
const SuperPermissionCode = "*:*:*"

// DefaultReserved returns the stock reserved identifiers.
func DefaultReserved() Reserved {
	return Reserved{
		SuperRoleKey:  "admin",
		SuperUsername: "admin",
		RootParentID:  uuid.Nil,
	}
}
