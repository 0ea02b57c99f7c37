package repository

import (
	"context"
	"database/sql"
	"errors"

	authDomain "github.com/clinsign/clinsign/internal/auth/domain"
	"github.com/clinsign/clinsign/internal/database"
	apperrors "github.com/clinsign/clinsign/internal/errors"
)

// PostgreSQLLoginSessionRepository implements LoginSession persistence for PostgreSQL.
// Uses PostgreSQL's native UUID type with transaction support via database.GetTx().
type PostgreSQLLoginSessionRepository struct {
	db *sql.DB
}

// Create persists a new LoginSession to the PostgreSQL database.
func (p *PostgreSQLLoginSessionRepository) Create(
	ctx context.Context,
	session *authDomain.LoginSession,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO login_sessions (id, user_id, token_hash, expires_at, created_at)
			  VALUES ($1, $2, $3, $4, $5)`

	_, err := querier.ExecContext(
		ctx,
		query,
		session.ID,
		session.UserID,
		session.TokenHash,
		session.ExpiresAt,
		session.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create login session")
	}

	return nil
}

// GetByTokenHash retrieves a LoginSession by its token hash from the PostgreSQL
// database. Returns ErrLoginSessionNotFound if no session matches the hash.
func (p *PostgreSQLLoginSessionRepository) GetByTokenHash(
	ctx context.Context,
	tokenHash string,
) (*authDomain.LoginSession, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, user_id, token_hash, expires_at, created_at
			  FROM login_sessions WHERE token_hash = $1`

	var session authDomain.LoginSession
	err := querier.QueryRowContext(ctx, query, tokenHash).Scan(
		&session.ID,
		&session.UserID,
		&session.TokenHash,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrLoginSessionNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get login session")
	}

	return &session, nil
}

// NewPostgreSQLLoginSessionRepository creates a new PostgreSQL LoginSession repository.
func NewPostgreSQLLoginSessionRepository(db *sql.DB) *PostgreSQLLoginSessionRepository {
	return &PostgreSQLLoginSessionRepository{db: db}
}
