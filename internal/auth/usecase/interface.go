// Package usecase implements authentication business logic.
package usecase

import (
	"context"

	"github.com/google/uuid"

	authDomain "github.com/clinsign/clinsign/internal/auth/domain"
)

// UserRepository defines the interface for User persistence operations.
type UserRepository interface {
	// Create persists a new User.
	Create(ctx context.Context, user *authDomain.User) error

	// Get retrieves a User by ID. Returns ErrUserNotFound if not found.
	Get(ctx context.Context, id uuid.UUID) (*authDomain.User, error)
}

// LoginSessionRepository defines the interface for LoginSession persistence operations.
type LoginSessionRepository interface {
	// Create persists a new LoginSession.
	Create(ctx context.Context, session *authDomain.LoginSession) error

	// GetByTokenHash retrieves a LoginSession by its token hash.
	// Returns ErrLoginSessionNotFound if no session matches.
	GetByTokenHash(ctx context.Context, tokenHash string) (*authDomain.LoginSession, error)
}

// AuthUseCase resolves platform session tokens to acting users.
type AuthUseCase interface {
	// Authenticate validates a session token hash and returns the user who
	// holds the session. Returns ErrNotAuthenticated when the session is
	// missing, expired, or belongs to an inactive user; the distinction is
	// deliberately not exposed to callers.
	Authenticate(ctx context.Context, tokenHash string) (*authDomain.User, error)
}
