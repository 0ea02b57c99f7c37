package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/clinsign/clinsign/internal/database"
	apperrors "github.com/clinsign/clinsign/internal/errors"
	signatureDomain "github.com/clinsign/clinsign/internal/signature/domain"
)

// PostgreSQLSessionRepository implements SignatureSession persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLSessionRepository struct {
	db *sql.DB
}

// Upsert inserts a SignatureSession or replaces the existing one for the same
// user. The table carries a unique constraint on user_id, so a user restarting
// the flow overwrites the previous session and its verifier (last writer wins).
func (p *PostgreSQLSessionRepository) Upsert(
	ctx context.Context,
	session *signatureDomain.SignatureSession,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO signature_sessions (id, user_id, document_id, verifier, status, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  ON CONFLICT (user_id) DO UPDATE
			  SET id = EXCLUDED.id,
				  document_id = EXCLUDED.document_id,
				  verifier = EXCLUDED.verifier,
				  status = EXCLUDED.status,
				  created_at = EXCLUDED.created_at,
				  updated_at = EXCLUDED.updated_at`

	_, err := querier.ExecContext(
		ctx,
		query,
		session.ID,
		session.UserID,
		session.DocumentID,
		session.Verifier,
		string(session.Status),
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to upsert signature session")
	}

	return nil
}

// GetByUserID retrieves the SignatureSession for a user from the PostgreSQL
// database. Uses transaction support via database.GetTx(). Returns
// ErrSessionNotFound if no session exists for the user.
func (p *PostgreSQLSessionRepository) GetByUserID(
	ctx context.Context,
	userID uuid.UUID,
) (*signatureDomain.SignatureSession, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, user_id, document_id, verifier, status, created_at, updated_at
			  FROM signature_sessions WHERE user_id = $1`

	var session signatureDomain.SignatureSession
	var status string

	err := querier.QueryRowContext(ctx, query, userID).Scan(
		&session.ID,
		&session.UserID,
		&session.DocumentID,
		&session.Verifier,
		&status,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, signatureDomain.ErrSessionNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get signature session")
	}

	session.Status = signatureDomain.SessionStatus(status)

	return &session, nil
}

// UpdateStatus transitions a SignatureSession to a new status and clears the
// verifier so it can never be replayed. Returns ErrSessionNotFound if the
// session no longer exists.
func (p *PostgreSQLSessionRepository) UpdateStatus(
	ctx context.Context,
	session *signatureDomain.SignatureSession,
) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE signature_sessions
			  SET verifier = $1,
				  status = $2,
				  updated_at = $3
			  WHERE id = $4`

	result, err := querier.ExecContext(
		ctx,
		query,
		session.Verifier,
		string(session.Status),
		session.UpdatedAt,
		session.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update signature session")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check signature session update")
	}
	if rowsAffected == 0 {
		return signatureDomain.ErrSessionNotFound
	}

	return nil
}

// NewPostgreSQLSessionRepository creates a new PostgreSQL SignatureSession repository.
func NewPostgreSQLSessionRepository(db *sql.DB) *PostgreSQLSessionRepository {
	return &PostgreSQLSessionRepository{db: db}
}
