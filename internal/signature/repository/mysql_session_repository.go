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

// MySQLSessionRepository implements SignatureSession persistence for MySQL.
// Uses BINARY(16) for UUIDs with transaction support via database.GetTx().
type MySQLSessionRepository struct {
	db *sql.DB
}

// Upsert inserts a SignatureSession or replaces the existing one for the same
// user. The table carries a unique constraint on user_id, so a user restarting
// the flow overwrites the previous session and its verifier (last writer wins).
func (m *MySQLSessionRepository) Upsert(
	ctx context.Context,
	session *signatureDomain.SignatureSession,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO signature_sessions (id, user_id, document_id, verifier, status, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE
				  id = VALUES(id),
				  document_id = VALUES(document_id),
				  verifier = VALUES(verifier),
				  status = VALUES(status),
				  created_at = VALUES(created_at),
				  updated_at = VALUES(updated_at)`

	id, err := session.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal session id")
	}

	userID, err := session.UserID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	documentID, err := session.DocumentID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal document id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		userID,
		documentID,
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

// GetByUserID retrieves the SignatureSession for a user from the MySQL database
// using BINARY(16) for UUIDs. Uses transaction support via database.GetTx().
// Returns ErrSessionNotFound if no session exists for the user.
func (m *MySQLSessionRepository) GetByUserID(
	ctx context.Context,
	userID uuid.UUID,
) (*signatureDomain.SignatureSession, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, user_id, document_id, verifier, status, created_at, updated_at
			  FROM signature_sessions WHERE user_id = ?`

	userIDBytes, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}

	var session signatureDomain.SignatureSession
	var idBytes []byte
	var sessionUserIDBytes []byte
	var documentIDBytes []byte
	var status string

	err = querier.QueryRowContext(ctx, query, userIDBytes).Scan(
		&idBytes,
		&sessionUserIDBytes,
		&documentIDBytes,
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

	if err := session.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal session id")
	}

	if err := session.UserID.UnmarshalBinary(sessionUserIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user id")
	}

	if err := session.DocumentID.UnmarshalBinary(documentIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal document id")
	}

	session.Status = signatureDomain.SessionStatus(status)

	return &session, nil
}

// UpdateStatus transitions a SignatureSession to a new status and clears the
// verifier so it can never be replayed. Returns ErrSessionNotFound if the
// session no longer exists.
func (m *MySQLSessionRepository) UpdateStatus(
	ctx context.Context,
	session *signatureDomain.SignatureSession,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE signature_sessions
			  SET verifier = ?,
				  status = ?,
				  updated_at = ?
			  WHERE id = ?`

	id, err := session.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal session id")
	}

	result, err := querier.ExecContext(
		ctx,
		query,
		session.Verifier,
		string(session.Status),
		session.UpdatedAt,
		id,
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

// NewMySQLSessionRepository creates a new MySQL SignatureSession repository.
func NewMySQLSessionRepository(db *sql.DB) *MySQLSessionRepository {
	return &MySQLSessionRepository{db: db}
}
