package domain

import (
	"time"

	"github.com/google/uuid"
)

// LoginSession is an authenticated platform session. Only the SHA-256 hash of
// the session token is stored.
type LoginSession struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the session has passed its expiration time.
func (s *LoginSession) IsExpired() bool {
	return s.ExpiresAt.Before(time.Now().UTC())
}
