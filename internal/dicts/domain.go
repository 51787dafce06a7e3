package dicts

import (
	"time"

	"github.com/google/uuid"
)

// DictType groups related dictionary items under a stable code, e.g.
// "user_status" or "notice_type".
type DictType struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Remark    string    `json:"remark,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DictItem is one label/value pair inside a type.
type DictItem struct {
	ID        uuid.UUID `json:"id"`
	TypeCode  string    `json:"typeCode"`
	Label     string    `json:"label"`
	Value     string    `json:"value"`
	Sort      int       `json:"sort"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateDictType is the payload for creating a dictionary type.
type CreateDictType struct {
	Code   string `json:"code" validate:"required,min=2,max=64"`
	Name   string `json:"name" validate:"required,min=1,max=128"`
	Remark string `json:"remark" validate:"max=255"`
}

// UpdateDictType is a partial patch. The code is immutable.
type UpdateDictType struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=128"`
	Remark *string `json:"remark" validate:"omitempty,max=255"`
}

// CreateDictItem is the payload for creating an item under a type.
type CreateDictItem struct {
	Label    string `json:"label" validate:"required,min=1,max=128"`
	Value    string `json:"value" validate:"required,min=1,max=128"`
	Sort     int    `json:"sort" validate:"gte=0"`
	IsActive *bool  `json:"isActive"`
}

// UpdateDictItem is a partial patch for an item.
type UpdateDictItem struct {
	Label    *string `json:"label" validate:"omitempty,min=1,max=128"`
	Value    *string `json:"value" validate:"omitempty,min=1,max=128"`
	Sort     *int    `json:"sort" validate:"omitempty,gte=0"`
	IsActive *bool   `json:"isActive"`
}
