// Package domain contains identity entities for the signing platform.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an acting professional on the platform. Credentials live in the
// surrounding system; this service only resolves session tokens back to the
// user who holds them.
type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	TaxID     string
	IsActive  bool
	CreatedAt time.Time
}
