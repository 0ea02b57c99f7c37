package repository

import (
	"context"
	"database/sql"
	"errors"

	authDomain "github.com/clinsign/clinsign/internal/auth/domain"
	"github.com/clinsign/clinsign/internal/database"
	apperrors "github.com/clinsign/clinsign/internal/errors"
)

// MySQLLoginSessionRepository implements LoginSession persistence for MySQL.
// Uses BINARY(16) for UUIDs with transaction support via database.GetTx().
type MySQLLoginSessionRepository struct {
	db *sql.DB
}

// Create persists a new LoginSession to the MySQL database.
func (m *MySQLLoginSessionRepository) Create(
	ctx context.Context,
	session *authDomain.LoginSession,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO login_sessions (id, user_id, token_hash, expires_at, created_at)
			  VALUES (?, ?, ?, ?, ?)`

	id, err := session.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal session id")
	}

	userID, err := session.UserID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		userID,
		session.TokenHash,
		session.ExpiresAt,
		session.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create login session")
	}

	return nil
}

// GetByTokenHash retrieves a LoginSession by its token hash from the MySQL
// database using BINARY(16) for UUIDs. Returns ErrLoginSessionNotFound if no
// session matches the hash.
func (m *MySQLLoginSessionRepository) GetByTokenHash(
	ctx context.Context,
	tokenHash string,
) (*authDomain.LoginSession, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, user_id, token_hash, expires_at, created_at
			  FROM login_sessions WHERE token_hash = ?`

	var session authDomain.LoginSession
	var idBytes []byte
	var userIDBytes []byte

	err := querier.QueryRowContext(ctx, query, tokenHash).Scan(
		&idBytes,
		&userIDBytes,
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

	if err := session.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal session id")
	}

	if err := session.UserID.UnmarshalBinary(userIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user id")
	}

	return &session, nil
}

// NewMySQLLoginSessionRepository creates a new MySQL LoginSession repository.
func NewMySQLLoginSessionRepository(db *sql.DB) *MySQLLoginSessionRepository {
	return &MySQLLoginSessionRepository{db: db}
}
