package users

import (
	"time"

	"github.com/google/uuid"
)

// User represents a back-office account.
type User struct {
	ID           uuid.UUID   `json:"id"`
	Username     string      `json:"username"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	DepartmentID uuid.UUID   `json:"departmentId"`
	PositionIDs  []uuid.UUID `json:"positionIds,omitempty"`
	IsActive     bool        `json:"isActive"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// CreateUser is the authoring payload.
type CreateUser struct {
	Username     string      `json:"username" validate:"required,min=3,max=50"`
	Name         string      `json:"name" validate:"required,max=100"`
	Email        string      `json:"email" validate:"omitempty,email"`
	Password     string      `json:"password" validate:"required,min=8"`
	DepartmentID uuid.UUID   `json:"departmentId"`
	RoleIDs      []uuid.UUID `json:"roleIds"`
	PositionIDs  []uuid.UUID `json:"positionIds"`
}

// UpdateUser is a partial patch. Username is immutable.
type UpdateUser struct {
	Name         *string      `json:"name,omitempty" validate:"omitempty,max=100"`
	Email        *string      `json:"email,omitempty" validate:"omitempty,email"`
	DepartmentID *uuid.UUID   `json:"departmentId,omitempty"`
	PositionIDs  *[]uuid.UUID `json:"positionIds,omitempty"`
	IsActive     *bool        `json:"isActive,omitempty"`
}

// ListUsersRequest narrows and pages the user listing.
type ListUsersRequest struct {
	Page     int
	PerPage  int
	Username string
}
