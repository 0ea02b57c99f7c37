package domain

import (
	"github.com/clinsign/clinsign/internal/errors"
)

// Signature flow errors.
var (
	// ErrSessionNotFound indicates no pending signature session exists for the
	// user at callback time. The user must restart the flow from ready.
	ErrSessionNotFound = errors.Wrap(errors.ErrNotFound, "signature session not found")

	// ErrDocumentNotFound indicates the target document does not exist.
	ErrDocumentNotFound = errors.Wrap(errors.ErrNotFound, "document not found")

	// ErrDocumentAlreadySigned indicates the document already carries a signature.
	ErrDocumentAlreadySigned = errors.Wrap(errors.ErrConflict, "document already signed")

	// ErrCertificateNotTrusted indicates the signer's certificate issuer is not
	// on the accredited allow-list in production mode.
	ErrCertificateNotTrusted = errors.New("certificate issuer not accredited")

	// ErrProviderNotConfigured indicates the external certificate authority has
	// no usable credentials. This is not a failure: the mock signer serves the
	// request instead.
	ErrProviderNotConfigured = errors.Wrap(errors.ErrUnavailable, "signature provider not configured")

	// ErrProvider indicates the external certificate authority rejected or
	// failed an exchange, discovery or signing call.
	ErrProvider = errors.New("signature provider error")

	// ErrAuditSignatureInvalid indicates an audit log entry's HMAC signature
	// does not match its content: the entry was tampered with after writing.
	ErrAuditSignatureInvalid = errors.New("audit log signature invalid")
)
