package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/clinsign/clinsign/internal/database"
	apperrors "github.com/clinsign/clinsign/internal/errors"
	signatureDomain "github.com/clinsign/clinsign/internal/signature/domain"
)

// PostgreSQLAuditLogRepository implements AuditLogEntry persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
// Entries are append-only: there is no update or delete path.
type PostgreSQLAuditLogRepository struct {
	db *sql.DB
}

// Create inserts a new AuditLogEntry into the PostgreSQL database. Uses
// transaction support via database.GetTx(). Handles nil metadata as database
// NULL.
func (p *PostgreSQLAuditLogRepository) Create(
	ctx context.Context,
	entry *signatureDomain.AuditLogEntry,
) error {
	querier := database.GetTx(ctx, p.db)

	var metadataJSON []byte
	var err error

	// Handle nil metadata as NULL
	if entry.Metadata != nil {
		metadataJSON, err = json.Marshal(entry.Metadata)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal audit log metadata")
		}
	}

	query := `INSERT INTO audit_logs (id, document_id, user_id, action, success, error_message,
			  certificate_issuer, certificate_serial, metadata, signature, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = querier.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.DocumentID,
		entry.UserID,
		entry.Action,
		entry.Success,
		entry.ErrorMessage,
		entry.CertificateIssuer,
		entry.CertificateSerial,
		metadataJSON,
		entry.Signature,
		entry.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit log entry")
	}

	return nil
}

// ListByDocumentID retrieves the audit entries for a document ordered by ID
// descending (newest first) with pagination. Returns an empty slice if the
// document has no entries.
func (p *PostgreSQLAuditLogRepository) ListByDocumentID(
	ctx context.Context,
	documentID uuid.UUID,
	offset, limit int,
) ([]*signatureDomain.AuditLogEntry, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, document_id, user_id, action, success, error_message,
			  certificate_issuer, certificate_serial, metadata, signature, created_at
			  FROM audit_logs
			  WHERE document_id = $1
			  ORDER BY id DESC
			  LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, documentID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit log entries")
	}

	return scanPostgreSQLAuditLogEntries(rows)
}

// ListByCreatedRange retrieves entries created within [start, end) ordered by
// creation time ascending with pagination, for integrity verification sweeps.
func (p *PostgreSQLAuditLogRepository) ListByCreatedRange(
	ctx context.Context,
	start, end time.Time,
	offset, limit int,
) ([]*signatureDomain.AuditLogEntry, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, document_id, user_id, action, success, error_message,
			  certificate_issuer, certificate_serial, metadata, signature, created_at
			  FROM audit_logs
			  WHERE created_at >= $1 AND created_at < $2
			  ORDER BY created_at ASC, id ASC
			  LIMIT $3 OFFSET $4`

	rows, err := querier.QueryContext(ctx, query, start, end, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit log entries by range")
	}

	return scanPostgreSQLAuditLogEntries(rows)
}

// scanPostgreSQLAuditLogEntries consumes and closes the rows. A NULL signature
// scans to nil, marking an unsigned entry.
func scanPostgreSQLAuditLogEntries(rows *sql.Rows) ([]*signatureDomain.AuditLogEntry, error) {
	defer func() {
		_ = rows.Close()
	}()

	// Initialize empty slice to avoid returning nil for empty results
	entries := make([]*signatureDomain.AuditLogEntry, 0)
	for rows.Next() {
		var entry signatureDomain.AuditLogEntry
		var metadataJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.DocumentID,
			&entry.UserID,
			&entry.Action,
			&entry.Success,
			&entry.ErrorMessage,
			&entry.CertificateIssuer,
			&entry.CertificateSerial,
			&metadataJSON,
			&entry.Signature,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit log entry")
		}

		// Unmarshal metadata if not NULL
		if metadataJSON != nil {
			if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
				return nil, apperrors.Wrap(err, "failed to unmarshal audit log metadata")
			}
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit log entries")
	}

	return entries, nil
}

// NewPostgreSQLAuditLogRepository creates a new PostgreSQL AuditLogEntry repository.
func NewPostgreSQLAuditLogRepository(db *sql.DB) *PostgreSQLAuditLogRepository {
	return &PostgreSQLAuditLogRepository{db: db}
}
