package domain

import (
	"time"

	"github.com/google/uuid"
)

// SignableDocument is the signature-facing view of a clinical document
// (e.g., a prescription). The wider platform owns the document content and
// its CRUD lifecycle; this subsystem is the only writer of the
// signature-related fields below.
//
// ContentDigest and SignatureDigest are two independently meaningful values:
// the first is computed over the original document bytes, the second over the
// signed artifact returned by the provider. They must never be conflated.
type SignableDocument struct {
	ID                uuid.UUID
	OwnerID           uuid.UUID
	Filename          string
	Status            DocumentStatus
	Signed            bool
	CertificateSerial string
	CertificateIssuer string
	ContentDigest     string
	SignatureDigest   string
	SignedAt          *time.Time
	ValidationToken   string
	ValidationURL     string
	SignatureMetadata map[string]any
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ApplySignature records a successful signing outcome on the document.
// The validation token pre-exists on the document; only the derived URL and
// the signature fields change here.
func (d *SignableDocument) ApplySignature(
	issuer, serial, contentDigest, signatureDigest, validationURL string,
	signedAt time.Time,
	metadata map[string]any,
) {
	d.Signed = true
	d.Status = DocumentStatusSigned
	d.CertificateIssuer = issuer
	d.CertificateSerial = serial
	d.ContentDigest = contentDigest
	d.SignatureDigest = signatureDigest
	d.ValidationURL = validationURL
	d.SignedAt = &signedAt
	d.SignatureMetadata = metadata
}
