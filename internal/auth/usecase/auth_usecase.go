package usecase

import (
	"context"
	"time"

	authDomain "github.com/clinsign/clinsign/internal/auth/domain"
	"github.com/clinsign/clinsign/internal/errors"
)

// authUseCase implements AuthUseCase.
type authUseCase struct {
	userRepo    UserRepository
	sessionRepo LoginSessionRepository
}

// Authenticate validates a session token hash and returns the associated user.
//
// Session not found, expiration, missing user and inactive user all collapse
// into ErrNotAuthenticated so that the HTTP layer renders a single 401
// response and nothing about the session state leaks.
func (a *authUseCase) Authenticate(ctx context.Context, tokenHash string) (*authDomain.User, error) {
	session, err := a.sessionRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, authDomain.ErrLoginSessionNotFound) {
			return nil, authDomain.ErrNotAuthenticated
		}
		return nil, err
	}

	if session.ExpiresAt.Before(time.Now().UTC()) {
		return nil, authDomain.ErrNotAuthenticated
	}

	user, err := a.userRepo.Get(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, authDomain.ErrUserNotFound) {
			return nil, authDomain.ErrNotAuthenticated
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, authDomain.ErrNotAuthenticated
	}

	return user, nil
}

// NewAuthUseCase creates a new AuthUseCase with the provided dependencies.
func NewAuthUseCase(userRepo UserRepository, sessionRepo LoginSessionRepository) AuthUseCase {
	return &authUseCase{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
	}
}
