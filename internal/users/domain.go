package users

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user account.
type User struct {
	ID           uuid.UUID
	Email        string
	FullName     string
	Phone        *string
	PasswordHash string
	IsActive     bool
	// IsSuperuser is carried from the legacy schema but is never consulted
	// by authorization decisions; admin access is granted through roles.
	IsSuperuser bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
