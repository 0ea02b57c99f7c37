package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditLogEntry records the outcome of one signing attempt. Entries are
// append-only and never mutated or deleted: they are the system-of-record for
// what happened, used for compliance review and forensics.
//
// Certificate identifiers are stored masked; the raw certificate metadata
// received from the provider is never persisted.
//
// Signature is an HMAC-SHA256 over the entry's canonical form, written at
// creation time when audit signing is configured. Nil marks an unsigned
// (legacy) entry.
type AuditLogEntry struct {
	ID                uuid.UUID
	DocumentID        uuid.UUID
	UserID            uuid.UUID
	Action            string
	Success           bool
	ErrorMessage      string
	CertificateIssuer string
	CertificateSerial string
	Metadata          map[string]any
	Signature         []byte
	CreatedAt         time.Time
}
