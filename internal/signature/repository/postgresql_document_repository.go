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

// PostgreSQLDocumentRepository implements SignableDocument persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLDocumentRepository struct {
	db *sql.DB
}

const postgresDocumentColumns = `id, owner_id, filename, status, signed, certificate_serial,
		  certificate_issuer, content_digest, signature_digest, signed_at, validation_token,
		  validation_url, signature_metadata, created_at, updated_at`

// Create inserts a new SignableDocument into the PostgreSQL database. Uses
// transaction support via database.GetTx(). Handles nil signature metadata as
// database NULL.
func (p *PostgreSQLDocumentRepository) Create(
	ctx context.Context,
	document *signatureDomain.SignableDocument,
) error {
	querier := database.GetTx(ctx, p.db)

	metadataJSON, err := marshalSignatureMetadata(document.SignatureMetadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO documents (` + postgresDocumentColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err = querier.ExecContext(
		ctx,
		query,
		document.ID,
		document.OwnerID,
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

// Get retrieves a SignableDocument by ID from the PostgreSQL database. Uses
// transaction support via database.GetTx(). Returns ErrDocumentNotFound if the
// document doesn't exist.
func (p *PostgreSQLDocumentRepository) Get(
	ctx context.Context,
	documentID uuid.UUID,
) (*signatureDomain.SignableDocument, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresDocumentColumns + ` FROM documents WHERE id = $1`

	row := querier.QueryRowContext(ctx, query, documentID)
	return scanPostgresDocument(row)
}

// GetByValidationToken retrieves a SignableDocument by its public validation
// token. Uses transaction support via database.GetTx(). Returns
// ErrDocumentNotFound if no document carries the token.
func (p *PostgreSQLDocumentRepository) GetByValidationToken(
	ctx context.Context,
	token string,
) (*signatureDomain.SignableDocument, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + postgresDocumentColumns + ` FROM documents WHERE validation_token = $1`

	row := querier.QueryRowContext(ctx, query, token)
	return scanPostgresDocument(row)
}

// Update modifies an existing SignableDocument in the PostgreSQL database.
// Uses transaction support via database.GetTx(). Returns ErrDocumentNotFound
// if the document no longer exists.
func (p *PostgreSQLDocumentRepository) Update(
	ctx context.Context,
	document *signatureDomain.SignableDocument,
) error {
	querier := database.GetTx(ctx, p.db)

	metadataJSON, err := marshalSignatureMetadata(document.SignatureMetadata)
	if err != nil {
		return err
	}

	query := `UPDATE documents
			  SET status = $1,
				  signed = $2,
				  certificate_serial = $3,
				  certificate_issuer = $4,
				  content_digest = $5,
				  signature_digest = $6,
				  signed_at = $7,
				  validation_url = $8,
				  signature_metadata = $9,
				  updated_at = $10
			  WHERE id = $11`

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
		document.ID,
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

func scanPostgresDocument(row *sql.Row) (*signatureDomain.SignableDocument, error) {
	var document signatureDomain.SignableDocument
	var status string
	var metadataJSON []byte

	err := row.Scan(
		&document.ID,
		&document.OwnerID,
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

	document.Status = signatureDomain.DocumentStatus(status)

	// Unmarshal metadata if not NULL
	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &document.SignatureMetadata); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal signature metadata")
		}
	}

	return &document, nil
}

func marshalSignatureMetadata(metadata map[string]any) ([]byte, error) {
	// Handle nil metadata as NULL
	if metadata == nil {
		return nil, nil
	}

	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal signature metadata")
	}

	return metadataJSON, nil
}

// NewPostgreSQLDocumentRepository creates a new PostgreSQL SignableDocument repository.
func NewPostgreSQLDocumentRepository(db *sql.DB) *PostgreSQLDocumentRepository {
	return &PostgreSQLDocumentRepository{db: db}
}
