package positions

import (
	"time"

	"github.com/google/uuid"
)

// Position is a job title users can hold. Positions are flat; they carry no
// hierarchy and no authorization weight of their own.
type Position struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Sort      int       `json:"sort"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreatePosition is the payload for creating a position.
type CreatePosition struct {
	Code string `json:"code" validate:"required,min=2,max=64"`
	Name string `json:"name" validate:"required,min=1,max=128"`
	Sort int    `json:"sort" validate:"gte=0"`
}

// UpdatePosition is a partial patch. The code is immutable once assigned.
type UpdatePosition struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=128"`
	Sort *int    `json:"sort" validate:"omitempty,gte=0"`
}
