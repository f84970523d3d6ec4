// Package authz is the authorization model for tasks and users. It is
// a pure decision layer: every function is a predicate over the caller
// and the target resource, with no store access and no state. Handlers
// fetch the resource first, then ask this package whether the caller
// may act on it.
package authz

import (
	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/google/uuid"
)

// Actor is the authenticated caller as carried by the session token.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// HasCapability reports whether role covers required. ADMIN covers
// everything USER does; USER covers only itself.
func HasCapability(role, required string) bool {
	if role == models.RoleAdmin {
		return true
	}
	return role == required
}

// IsAdmin reports whether the actor holds the ADMIN capability.
func (a Actor) IsAdmin() bool {
	return HasCapability(a.Role, models.RoleAdmin)
}

// CanViewTask: admin, owner, or assignee.
func CanViewTask(a Actor, t *models.Task) bool {
	if a.IsAdmin() {
		return true
	}
	return t.OwnerID == a.ID || (t.AssignedTo != nil && *t.AssignedTo == a.ID)
}

// CanUpdateTask mirrors CanViewTask; ownership and assignment are
// checked against the pre-update record.
func CanUpdateTask(a Actor, t *models.Task) bool {
	return CanViewTask(a, t)
}

// CanDeleteTask: admin or owner. An assignee alone may not delete.
func CanDeleteTask(a Actor, t *models.Task) bool {
	if a.IsAdmin() {
		return true
	}
	return t.OwnerID == a.ID
}

// CanAssignTasks: setting or changing a task's assignee is admin-only,
// on create and on update alike.
func CanAssignTasks(a Actor) bool {
	return a.IsAdmin()
}

// CanManageUsers gates the admin user endpoints.
func CanManageUsers(a Actor) bool {
	return a.IsAdmin()
}

// CanChangeRole: admin, and never against the caller's own record.
func CanChangeRole(a Actor, targetID uuid.UUID) bool {
	return a.IsAdmin() && targetID != a.ID
}

// CanDeleteUser: admin, and never against the caller's own record.
func CanDeleteUser(a Actor, targetID uuid.UUID) bool {
	return a.IsAdmin() && targetID != a.ID
}

// Scope is the visibility filter for task list queries, derived before
// any caller-supplied status or order filters are applied.
type Scope struct {
	// All is set for admins: no narrowing.
	All bool
	// UserID narrows to tasks owned by or assigned to this user.
	UserID uuid.UUID
}

// TaskScope computes the list visibility filter for the actor.
func TaskScope(a Actor) Scope {
	if a.IsAdmin() {
		return Scope{All: true}
	}
	return Scope{UserID: a.ID}
}
