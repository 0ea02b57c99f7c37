// Package usecase defines business logic interfaces for the digital signature flow.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	signatureDomain "github.com/clinsign/clinsign/internal/signature/domain"
)

// SessionRepository defines persistence operations for signature sessions.
// Implementations must support transaction-aware operations via context propagation.
type SessionRepository interface {
	// Upsert stores a session keyed by user id, replacing any existing row for
	// the same user (last writer wins).
	Upsert(ctx context.Context, session *signatureDomain.SignatureSession) error

	// GetByUserID retrieves the session for a user. Returns ErrSessionNotFound
	// if no session exists.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*signatureDomain.SignatureSession, error)

	// UpdateStatus transitions a session and persists its cleared verifier.
	// Returns ErrSessionNotFound if the session no longer exists.
	UpdateStatus(ctx context.Context, session *signatureDomain.SignatureSession) error
}

// DocumentRepository defines persistence operations for signable documents.
// Implementations must support transaction-aware operations via context propagation.
type DocumentRepository interface {
	// Create stores a new document in the repository.
	Create(ctx context.Context, document *signatureDomain.SignableDocument) error

	// Get retrieves a document by ID. Returns ErrDocumentNotFound if not found.
	Get(ctx context.Context, documentID uuid.UUID) (*signatureDomain.SignableDocument, error)

	// GetByValidationToken retrieves a document by its public validation token.
	// Returns ErrDocumentNotFound if no document carries the token.
	GetByValidationToken(ctx context.Context, token string) (*signatureDomain.SignableDocument, error)

	// Update modifies an existing document. Returns ErrDocumentNotFound if the
	// document no longer exists.
	Update(ctx context.Context, document *signatureDomain.SignableDocument) error
}

// AuditLogRepository defines persistence operations for the append-only audit log.
type AuditLogRepository interface {
	// Create appends a new audit entry.
	Create(ctx context.Context, entry *signatureDomain.AuditLogEntry) error

	// ListByDocumentID retrieves a document's audit entries, newest first.
	ListByDocumentID(
		ctx context.Context,
		documentID uuid.UUID,
		offset, limit int,
	) ([]*signatureDomain.AuditLogEntry, error)

	// ListByCreatedRange retrieves entries created within [start, end) ordered
	// by creation time ascending, for integrity verification sweeps.
	ListByCreatedRange(
		ctx context.Context,
		start, end time.Time,
		offset, limit int,
	) ([]*signatureDomain.AuditLogEntry, error)
}

// CheckCertificateOutput reports whether the acting user holds a usable
// digital certificate at the provider.
type CheckCertificateOutput struct {
	HasCertificate bool
	Certificates   []signatureDomain.CertificateSlot
	Message        string
}

// MockSignOutput is the outcome of a simulated signing.
type MockSignOutput struct {
	ContentDigest     string
	SignatureDigest   string
	CertificateIssuer string
	CertificateSerial string
	SignedAt          time.Time
	ValidationToken   string
	ValidationURL     string
}

// StartAuthorizationOutput is the outcome of starting the authorization step.
// When the provider is unconfigured the flow short-circuits to the mock
// signer and MockResult carries the result instead of AuthorizationURL.
type StartAuthorizationOutput struct {
	AuthorizationURL string
	Mock             bool
	MockResult       *MockSignOutput
}

// CompleteSigningInput carries the callback code, the target document id and
// the document bytes for the synchronous exchange-validate-sign sequence.
// DocumentID must match the document the pending session was opened for.
type CompleteSigningInput struct {
	UserID            uuid.UUID
	DocumentID        uuid.UUID
	AuthorizationCode string
	Content           []byte
}

// CompleteSigningOutput is the outcome of a successful real signing.
type CompleteSigningOutput struct {
	SignedArtifact     []byte
	ContentDigest      string
	SignatureDigest    string
	CertificateAlias   string
	CertificateIssuer  string
	AuthorizedIdentity string
	SignedAt           time.Time
	ValidationToken    string
	ValidationURL      string
}

// ResumeInput carries the inbound callback parameters used to reconstruct the
// flow state on a fresh request. State is the correlation value the provider
// echoes back: the document id committed at authorization time.
type ResumeInput struct {
	UserID        uuid.UUID
	DocumentID    uuid.UUID
	Code          string
	State         string
	CallbackError string
}

// ResumeOutput is the flow-state decision for the caller: which state to
// render and, for signing, that the client should submit the sign request.
type ResumeOutput struct {
	State  signatureDomain.FlowState
	Reason string
}

// SignatureUseCase orchestrates the digital signature flow: certificate
// discovery, PKCE authorization, the callback-driven exchange-validate-sign
// sequence, the mock fallback, and the public validation lookup.
type SignatureUseCase interface {
	// CheckCertificate asks the provider whether the holder of taxID is
	// enrolled. Returns ErrProviderNotConfigured when the provider has no
	// usable credentials.
	CheckCertificate(ctx context.Context, taxID string) (*CheckCertificateOutput, error)

	// StartAuthorization opens a signature session for the user and builds the
	// provider authorization URL. When the provider is unconfigured it signs
	// the document with the mock signer instead and reports the result.
	StartAuthorization(
		ctx context.Context,
		userID, documentID uuid.UUID,
	) (*StartAuthorizationOutput, error)

	// CompleteSigning resumes the flow at callback time: it exchanges the
	// authorization code against the persisted verifier, validates certificate
	// trust, invokes the provider's sign operation, records digests, audit and
	// session state, and revokes the access credential on every exit path.
	//
	// Returns ErrSessionNotFound when no pending session exists for the user
	// or when the pending session is bound to a different document than
	// input.DocumentID (the user restarted the flow elsewhere),
	// ErrCertificateNotTrusted when the issuer fails the trust policy, and
	// ErrProvider on exchange or signing failures. All failures leave the
	// document untouched, mark the session failed and append one failure
	// audit entry.
	CompleteSigning(
		ctx context.Context,
		input *CompleteSigningInput,
	) (*CompleteSigningOutput, error)

	// MockSign signs the document locally without contacting any authority.
	// The issuer label unambiguously marks the result as non-production.
	MockSign(ctx context.Context, userID, documentID uuid.UUID) (*MockSignOutput, error)

	// Resume reconstructs the observable flow state for a fresh request from
	// the persisted document plus the inbound callback parameters.
	Resume(ctx context.Context, input *ResumeInput) (*ResumeOutput, error)

	// ValidateDocument resolves a public validation token to its signed
	// document. Idempotent, unauthenticated lookup.
	ValidateDocument(ctx context.Context, token string) (*signatureDomain.SignableDocument, error)

	// ListAuditLogs retrieves a document's audit entries, newest first.
	ListAuditLogs(
		ctx context.Context,
		documentID uuid.UUID,
		offset, limit int,
	) ([]*signatureDomain.AuditLogEntry, error)
}
