package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/clinsign/clinsign/internal/database"
	apperrors "github.com/clinsign/clinsign/internal/errors"
	signatureDomain "github.com/clinsign/clinsign/internal/signature/domain"
)

// MySQLDocumentRepository implements SignableDocument persistence for MySQL.
// Uses BINARY(16) for UUIDs with transaction support via database.GetTx().
type MySQLDocumentRepository struct {
	db *sql.DB
}

const mysqlDocumentColumns = `id, owner_id, filename, status, signed, certificate_serial,
		  certificate_issuer, content_digest, signature_digest, signed_at, validation_token,
		  validation_url, signature_metadata, created_at, updated_at`

// Create inserts a new SignableDocument into the MySQL database using BINARY(16)
// for UUIDs. Uses transaction support via database.GetTx(). Handles nil
// signature metadata as database NULL.
func (m *MySQLDocumentRepository) Create(
	ctx context.Context,
	document *signatureDomain.SignableDocument,
) error {
	querier := database.GetTx(ctx, m.db)

	metadataJSON, err := marshalSignatureMetadata(document.SignatureMetadata)
	if err != nil {
		return err
	}

	id, err := document.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal document id")
	}

	ownerID, err := document.OwnerID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal owner id")
	}

	query := `INSERT INTO documents (` + mysqlDocumentColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		ownerID,
		document.Filename,
		string(document.Status),
		document.Signed,
		document.CertificateSerial,
		document.CertificateIssuer,
		document.ContentDigest,
		document.SignatureDigest,
		document.SignedAt,
		document.ValidationToken,
		document.ValidationURL,
		metadataJSON,
		document.CreatedAt,
		document.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create document")
	}

	return nil
}

// Get retrieves a SignableDocument by ID from the MySQL database using
// BINARY(16) for UUIDs. Uses transaction support via database.GetTx().
// Returns ErrDocumentNotFound if the document doesn't exist.
func (m *MySQLDocumentRepository) Get(
	ctx context.Context,
	documentID uuid.UUID,
) (*signatureDomain.SignableDocument, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := documentID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal document id")
	}

	query := `SELECT ` + mysqlDocumentColumns + ` FROM documents WHERE id = ?`

	row := querier.QueryRowContext(ctx, query, id)
	return scanMySQLDocument(row)
}

// GetByValidationToken retrieves a SignableDocument by its public validation
// token. Uses transaction support via database.GetTx(). Returns
// ErrDocumentNotFound if no document carries the token.
func (m *MySQLDocumentRepository) GetByValidationToken(
	ctx context.Context,
	token string,
) (*signatureDomain.SignableDocument, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlDocumentColumns + ` FROM documents WHERE validation_token = ?`

	row := querier.QueryRowContext(ctx, query, token)
	return scanMySQLDocument(row)
}

// Update modifies an existing SignableDocument in the MySQL database using
// BINARY(16) for UUIDs. Uses transaction support via database.GetTx().
// Returns ErrDocumentNotFound if the document no longer exists.
func (m *MySQLDocumentRepository) Update(
	ctx context.Context,
	document *signatureDomain.SignableDocument,
) error {
	querier := database.GetTx(ctx, m.db)

	metadataJSON, err := marshalSignatureMetadata(document.SignatureMetadata)
	if err != nil {
		return err
	}

	id, err := document.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal document id")
	}

	query := `UPDATE documents
			  SET status = ?,
				  signed = ?,
				  certificate_serial = ?,
				  certificate_issuer = ?,
				  content_digest = ?,
				  signature_digest = ?,
				  signed_at = ?,
				  validation_url = ?,
				  signature_metadata = ?,
				  updated_at = ?
			  WHERE id = ?`

	result, err := querier.ExecContext(
		ctx,
		query,
		string(document.Status),
		document.Signed,
		document.CertificateSerial,
		document.CertificateIssuer,
		document.ContentDigest,
		document.SignatureDigest,
		document.SignedAt,
		document.ValidationURL,
		metadataJSON,
		document.UpdatedAt,
		id,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update document")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check document update")
	}
	if rowsAffected == 0 {
		return signatureDomain.ErrDocumentNotFound
	}

	return nil
}

func scanMySQLDocument(row *sql.Row) (*signatureDomain.SignableDocument, error) {
	var document signatureDomain.SignableDocument
	var idBytes []byte
	var ownerIDBytes []byte
	var status string
	var metadataJSON []byte

	err := row.Scan(
		&idBytes,
		&ownerIDBytes,
		&document.Filename,
		&status,
		&document.Signed,
		&document.CertificateSerial,
		&document.CertificateIssuer,
		&document.ContentDigest,
		&document.SignatureDigest,
		&document.SignedAt,
		&document.ValidationToken,
		&document.ValidationURL,
		&metadataJSON,
		&document.CreatedAt,
		&document.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, signatureDomain.ErrDocumentNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get document")
	}

	if err := document.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal document id")
	}

	if err := document.OwnerID.UnmarshalBinary(ownerIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal owner id")
	}

	document.Status = signatureDomain.DocumentStatus(status)

	// Unmarshal metadata if not NULL
	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &document.SignatureMetadata); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal signature metadata")
		}
	}

	return &document, nil
}

// NewMySQLDocumentRepository creates a new MySQL SignableDocument repository.
func NewMySQLDocumentRepository(db *sql.DB) *MySQLDocumentRepository {
	return &MySQLDocumentRepository{db: db}
}
