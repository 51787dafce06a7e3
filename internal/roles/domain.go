package roles

import (
	"time"

	"github.com/google/uuid"

	"github.com/vantage-admin/vantage-admin/internal/rbac"
)

// Role represents a permission grouping with a row-visibility tier.
type Role struct {
	ID        uuid.UUID      `json:"id"`
	Key       string         `json:"key"`
	Name      string         `json:"name"`
	Remark    string         `json:"remark"`
	DataScope rbac.DataScope `json:"dataScope"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// CreateRole is the authoring payload.
type CreateRole struct {
	Key       string         `json:"key" validate:"required,max=50"`
	Name      string         `json:"name" validate:"required,max=100"`
	Remark    string         `json:"remark" validate:"max=255"`
	DataScope rbac.DataScope `json:"dataScope" validate:"required,min=1,max=5"`
}

// UpdateRole is a partial patch. The role key is immutable.
type UpdateRole struct {
	Name      *string         `json:"name,omitempty" validate:"omitempty,max=100"`
	Remark    *string         `json:"remark,omitempty" validate:"omitempty,max=255"`
	DataScope *rbac.DataScope `json:"dataScope,omitempty" validate:"omitempty,min=1,max=5"`
}
