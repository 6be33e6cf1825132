package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore is the external user-lookup collaborator. The auth core does not
// own user persistence; it only resolves identifiers to stored users.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Create(ctx context.Context, user User) (User, error)
}

// User represents a stored user with authentication material.
// Roles is the current role set and the source of truth for authorization.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// PasswordVerifier checks a raw password against a stored hash.
type PasswordVerifier interface {
	Matches(raw, hash string) bool
}
