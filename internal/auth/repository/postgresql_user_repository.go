// Package repository provides PostgreSQL and MySQL persistence for identity data.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	authDomain "github.com/clinsign/clinsign/internal/auth/domain"
	"github.com/clinsign/clinsign/internal/database"
	apperrors "github.com/clinsign/clinsign/internal/errors"
)

// PostgreSQLUserRepository implements User persistence for PostgreSQL.
// Uses PostgreSQL's native UUID type with transaction support via database.GetTx().
type PostgreSQLUserRepository struct {
	db *sql.DB
}

// Create persists a new User to the PostgreSQL database.
func (p *PostgreSQLUserRepository) Create(ctx context.Context, user *authDomain.User) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO users (id, name, email, tax_id, is_active, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := querier.ExecContext(
		ctx,
		query,
		user.ID,
		user.Name,
		user.Email,
		user.TaxID,
		user.IsActive,
		user.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create user")
	}

	return nil
}

// Get retrieves a User by ID from the PostgreSQL database.
// Returns ErrUserNotFound if the user does not exist.
func (p *PostgreSQLUserRepository) Get(ctx context.Context, id uuid.UUID) (*authDomain.User, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, email, tax_id, is_active, created_at FROM users WHERE id = $1`

	var user authDomain.User
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.TaxID,
		&user.IsActive,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user")
	}

	return &user, nil
}

// NewPostgreSQLUserRepository creates a new PostgreSQL User repository.
func NewPostgreSQLUserRepository(db *sql.DB) *PostgreSQLUserRepository {
	return &PostgreSQLUserRepository{db: db}
}
