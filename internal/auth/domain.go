package auth

import (
	"time"

	"github.com/google/uuid"
)

// Account is the credential view of a user record.
type Account struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
