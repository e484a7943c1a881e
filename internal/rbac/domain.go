package rbac

import (
	"time"

	"github.com/google/uuid"
)

// Scope types a role assignment can carry. The resolver aggregates only
// platform-scoped assignments into the global permission set; group-scoped
// assignments are stored and validated but evaluated by group features,
// not here.
const (
	ScopePlatform = "platform"
	ScopeGroup    = "group"
)

// Role groups permission codes under a name.
type Role struct {
	ID          uuid.UUID
	Name        string
	Description string
	Permissions []string
	IsSystem    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Assignment grants a role to a user within a scope, optionally bounded by
// a validity window. It is a join entity owned by neither aggregate: the
// schema cascades deletion when its user or role disappears.
type Assignment struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	RoleID    uuid.UUID
	ScopeType string
	ScopeID   *uuid.UUID
	StartsAt  *time.Time
	EndsAt    *time.Time
	CreatedAt time.Time

	// Role is eagerly loaded by the repository.
	Role *Role
}

// ActiveAt reports whether the assignment is in effect at t. Absent window
// bounds are open-ended.
func (a Assignment) ActiveAt(t time.Time) bool {
	if a.StartsAt != nil && a.StartsAt.After(t) {
		return false
	}
	if a.EndsAt != nil && a.EndsAt.Before(t) {
		return false
	}
	return true
}
