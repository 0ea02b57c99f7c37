package domain

import (
	"github.com/clinsign/clinsign/internal/errors"
)

// Authentication errors.
var (
	// ErrUserNotFound indicates a user with the specified ID was not found.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrLoginSessionNotFound indicates no session exists for the given token hash.
	ErrLoginSessionNotFound = errors.Wrap(errors.ErrNotFound, "login session not found")

	// ErrNotAuthenticated indicates the request carries no valid session. The
	// user-facing message is rendered in Portuguese by the HTTP layer.
	ErrNotAuthenticated = errors.Wrap(errors.ErrUnauthorized, "not authenticated")
)
