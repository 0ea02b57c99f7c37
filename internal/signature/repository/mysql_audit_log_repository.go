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

// MySQLAuditLogRepository implements AuditLogEntry persistence for MySQL.
// Uses BINARY(16) for UUIDs with transaction support via database.GetTx().
// Entries are append-only: there is no update or delete path.
type MySQLAuditLogRepository struct {
	db *sql.DB
}

// Create inserts a new AuditLogEntry into the MySQL database using BINARY(16)
// for UUIDs. Uses transaction support via database.GetTx(). Handles nil
// metadata as database NULL.
func (m *MySQLAuditLogRepository) Create(
	ctx context.Context,
	entry *signatureDomain.AuditLogEntry,
) error {
	querier := database.GetTx(ctx, m.db)

	var metadataJSON []byte
	var err error

	// Handle nil metadata as NULL
	if entry.Metadata != nil {
		metadataJSON, err = json.Marshal(entry.Metadata)
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal audit log metadata")
		}
	}

	id, err := entry.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit log id")
	}

	documentID, err := entry.DocumentID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal document id")
	}

	userID, err := entry.UserID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `INSERT INTO audit_logs (id, document_id, user_id, action, success, error_message,
			  certificate_issuer, certificate_serial, metadata, signature, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		documentID,
		userID,
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
func (m *MySQLAuditLogRepository) ListByDocumentID(
	ctx context.Context,
	documentID uuid.UUID,
	offset, limit int,
) ([]*signatureDomain.AuditLogEntry, error) {
	querier := database.GetTx(ctx, m.db)

	documentIDBytes, err := documentID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal document id")
	}

	query := `SELECT id, document_id, user_id, action, success, error_message,
			  certificate_issuer, certificate_serial, metadata, signature, created_at
			  FROM audit_logs
			  WHERE document_id = ?
			  ORDER BY id DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, documentIDBytes, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit log entries")
	}

	return scanMySQLAuditLogEntries(rows)
}

// ListByCreatedRange retrieves entries created within [start, end) ordered by
// creation time ascending with pagination, for integrity verification sweeps.
func (m *MySQLAuditLogRepository) ListByCreatedRange(
	ctx context.Context,
	start, end time.Time,
	offset, limit int,
) ([]*signatureDomain.AuditLogEntry, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, document_id, user_id, action, success, error_message,
			  certificate_issuer, certificate_serial, metadata, signature, created_at
			  FROM audit_logs
			  WHERE created_at >= ? AND created_at < ?
			  ORDER BY created_at ASC, id ASC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, start, end, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit log entries by range")
	}

	return scanMySQLAuditLogEntries(rows)
}

// scanMySQLAuditLogEntries consumes and closes the rows. A NULL signature
// scans to nil, marking an unsigned entry.
func scanMySQLAuditLogEntries(rows *sql.Rows) ([]*signatureDomain.AuditLogEntry, error) {
	defer func() {
		_ = rows.Close()
	}()

	// Initialize empty slice to avoid returning nil for empty results
	entries := make([]*signatureDomain.AuditLogEntry, 0)
	for rows.Next() {
		var entry signatureDomain.AuditLogEntry
		var idBytes []byte
		var entryDocumentIDBytes []byte
		var userIDBytes []byte
		var metadataJSON []byte

		err := rows.Scan(
			&idBytes,
			&entryDocumentIDBytes,
			&userIDBytes,
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

		if err := entry.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal audit log id")
		}

		if err := entry.DocumentID.UnmarshalBinary(entryDocumentIDBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal document id")
		}

		if err := entry.UserID.UnmarshalBinary(userIDBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal user id")
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

// NewMySQLAuditLogRepository creates a new MySQL AuditLogEntry repository.
func NewMySQLAuditLogRepository(db *sql.DB) *MySQLAuditLogRepository {
	return &MySQLAuditLogRepository{db: db}
}
