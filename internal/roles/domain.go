package roles

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a named bundle of permission codes for management.
type Role struct {
	ID          uuid.UUID
	Name        string
	Description string
	Permissions []string
	// IsSystem marks seeded roles that must not be edited or deleted
	// through the management API.
	IsSystem  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
