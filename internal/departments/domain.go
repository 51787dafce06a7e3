package departments

import (
	"time"

	"github.com/google/uuid"
)

// Department is an organizational unit; parent pointers form a tree rooted
// at the nil sentinel.
type Department struct {
	ID        uuid.UUID `json:"id"`
	ParentID  uuid.UUID `json:"parentId"`
	Name      string    `json:"name"`
	Sort      int       `json:"sort"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TreeNode is a department with resolved children.
type TreeNode struct {
	Department
	Children []*TreeNode `json:"children,omitempty"`
}

// CreateDepartment is the authoring payload.
type CreateDepartment struct {
	ParentID uuid.UUID `json:"parentId"`
	Name     string    `json:"name" validate:"required,max=100"`
	Sort     int       `json:"sort"`
}

// UpdateDepartment is a partial patch.
type UpdateDepartment struct {
	ParentID *uuid.UUID `json:"parentId,omitempty"`
	Name     *string    `json:"name,omitempty" validate:"omitempty,max=100"`
	Sort     *int       `json:"sort,omitempty"`
}
