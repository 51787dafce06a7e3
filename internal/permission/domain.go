package permission

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies a permission node. The set is closed and a node's kind is
// immutable after creation.
type Kind string

const (
	KindDirectory Kind = "DIRECTORY"
	KindMenu      Kind = "MENU"
	KindButton    Kind = "BUTTON"
	KindAPI       Kind = "API"
)

// Origin records how a node entered the tree.
type Origin string

const (
	// OriginUser marks manually authored nodes.
	OriginUser Origin = "USER"
	// OriginSystem marks nodes auto-discovered by the endpoint synchronizer.
	OriginSystem Origin = "SYSTEM"
)

// Well-known action verbs.
const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionExport = "export"
	ActionImport = "import"
	ActionAccess = "access"
	ActionQuery  = "query"
	ActionGet    = "get"
)

// MenuMeta carries display attributes present only on MENU nodes.
type MenuMeta struct {
	Path   string `json:"path"`
	Icon   string `json:"icon"`
	Hidden bool   `json:"hidden"`
	Sort   int    `json:"sort"`
}

// Node is a single entry in the permission tree.
type Node struct {
	ID        uuid.UUID  `json:"id"`
	Code      string     `json:"code"`
	Name      string     `json:"name"`
	Kind      Kind       `json:"kind"`
	Origin    Origin     `json:"origin"`
	ParentID  uuid.UUID  `json:"parentId"`
	Action    string     `json:"action"`
	Menu      *MenuMeta  `json:"menu,omitempty"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Deleted reports whether the node carries a soft-delete marker.
func (n *Node) Deleted() bool {
	return n.DeletedAt != nil
}

// CreateNode describes a node to be authored by a user.
type CreateNode struct {
	Code     string    `json:"code" validate:"required,max=100"`
	Name     string    `json:"name" validate:"required,max=100"`
	Kind     Kind      `json:"kind" validate:"required,oneof=DIRECTORY MENU BUTTON API"`
	ParentID uuid.UUID `json:"parentId"`
	Action   string    `json:"action" validate:"max=50"`
	Menu     *MenuMeta `json:"menu,omitempty"`
}

// UpdateNode is a partial patch; nil fields are left untouched.
type UpdateNode struct {
	Code     *string    `json:"code,omitempty" validate:"omitempty,max=100"`
	Name     *string    `json:"name,omitempty" validate:"omitempty,max=100"`
	ParentID *uuid.UUID `json:"parentId,omitempty"`
	Action   *string    `json:"action,omitempty" validate:"omitempty,max=50"`
	Menu     *MenuMeta  `json:"menu,omitempty"`
}

// TreeNode is a node with its resolved children, used by listing endpoints.
type TreeNode struct {
	Node
	Children []*TreeNode `json:"children,omitempty"`
}
