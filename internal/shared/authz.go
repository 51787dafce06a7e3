package shared

// Permission codes declared by the platform's own routes. The synchronizer
// derives API nodes from these, so the <module>:<menu>:<action> shape matters.
const (
	PermUserView   = "system:user:view"
	PermUserCreate = "system:user:create"
	PermUserUpdate = "system:user:update"
	PermUserDelete = "system:user:delete"

	PermRoleView   = "system:role:view"
	PermRoleCreate = "system:role:create"
	PermRoleUpdate = "system:role:update"
	PermRoleDelete = "system:role:delete"

	PermPermissionView   = "system:permission:view"
	PermPermissionCreate = "system:permission:create"
	PermPermissionUpdate = "system:permission:update"
	PermPermissionDelete = "system:permission:delete"

	PermDepartmentView   = "system:department:view"
	PermDepartmentCreate = "system:department:create"
	PermDepartmentUpdate = "system:department:update"
	PermDepartmentDelete = "system:department:delete"

	PermPositionView   = "system:position:view"
	PermPositionCreate = "system:position:create"
	PermPositionUpdate = "system:position:update"
	PermPositionDelete = "system:position:delete"

	PermDictView   = "system:dict:view"
	PermDictCreate = "system:dict:create"
	PermDictUpdate = "system:dict:update"
	PermDictDelete = "system:dict:delete"
)
