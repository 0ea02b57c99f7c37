package domain

import (
	"time"

	"github.com/google/uuid"
)

// SignatureSession links one user's in-flight authorization attempt to a
// target document. At most one session exists per user: starting a new
// authorization upserts the row keyed by user id, silently replacing any
// previous pending attempt (last writer wins, no locking).
//
// The verifier is the PKCE secret committed at authorization time and proven
// during the code exchange. It is single-use: a new authorization always
// generates a fresh pair.
type SignatureSession struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	DocumentID uuid.UUID
	Verifier   string
	Status     SessionStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsPending reports whether the session still awaits its callback.
func (s *SignatureSession) IsPending() bool {
	return s.Status == SessionStatusPending
}
