package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"io"

	"golang.org/x/crypto/hkdf"

	apperrors "github.com/clinsign/clinsign/internal/errors"
	signatureDomain "github.com/clinsign/clinsign/internal/signature/domain"
)

type auditSigner struct{}

// NewAuditSigner creates an HMAC-based audit log signer using HKDF-SHA256 for
// key derivation and HMAC-SHA256 for signature generation.
func NewAuditSigner() AuditSigner {
	return &auditSigner{}
}

// deriveSigningKey uses HKDF-SHA256 to derive a 32-byte signing key from the
// configured secret. The info string is versioned for future algorithm changes.
func (a *auditSigner) deriveSigningKey(secret []byte) ([]byte, error) {
	info := []byte("audit-log-signing-v1")
	kdf := hkdf.New(sha256.New, secret, nil, info)

	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(kdf, signingKey); err != nil {
		return nil, err
	}

	return signingKey, nil
}

// canonicalize converts an audit log entry to its canonical byte form.
// Format: id || document_id || user_id || action || success || error_message
// || certificate_issuer || certificate_serial || metadata || created_at.
// Variable-length fields are length-prefixed to prevent ambiguity.
func (a *auditSigner) canonicalize(entry *signatureDomain.AuditLogEntry) ([]byte, error) {
	buf := make([]byte, 0, 512)

	buf = append(buf, entry.ID[:]...)
	buf = append(buf, entry.DocumentID[:]...)
	buf = append(buf, entry.UserID[:]...)

	buf = appendLengthPrefixed(buf, []byte(entry.Action))

	if entry.Success {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}

	buf = appendLengthPrefixed(buf, []byte(entry.ErrorMessage))
	buf = appendLengthPrefixed(buf, []byte(entry.CertificateIssuer))
	buf = appendLengthPrefixed(buf, []byte(entry.CertificateSerial))

	if entry.Metadata != nil {
		metadataBytes, err := json.Marshal(entry.Metadata)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to marshal audit log metadata")
		}
		buf = appendLengthPrefixed(buf, metadataBytes)
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	timeBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(timeBytes, uint64(entry.CreatedAt.UnixNano()))
	buf = append(buf, timeBytes...)

	return buf, nil
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))
	buf = append(buf, length...)
	buf = append(buf, data...)
	return buf
}

// Sign generates the HMAC-SHA256 signature for the audit log entry.
func (a *auditSigner) Sign(secret []byte, entry *signatureDomain.AuditLogEntry) ([]byte, error) {
	signingKey, err := a.deriveSigningKey(secret)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to derive audit signing key")
	}
	defer zero(signingKey)

	canonical, err := a.canonicalize(entry)
	if err != nil {
		return nil, err
	}

	mac := hmac.New(sha256.New, signingKey)
	mac.Write(canonical)
	return mac.Sum(nil), nil
}

// Verify checks the entry's signature against its content.
func (a *auditSigner) Verify(secret []byte, entry *signatureDomain.AuditLogEntry) error {
	expected, err := a.Sign(secret, entry)
	if err != nil {
		return err
	}

	if !hmac.Equal(entry.Signature, expected) {
		return signatureDomain.ErrAuditSignatureInvalid
	}

	return nil
}

// zero overwrites key material in memory after use.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
