// Package service defines signature support services: PKCE challenge
// generation, certificate trust decisions, the external certificate authority
// client and the local mock signer.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	signatureDomain "github.com/clinsign/clinsign/internal/signature/domain"
)

// ChallengePair holds a one-time PKCE verifier and its derived challenge.
// The verifier is the secret committed at authorization time; the challenge is
// the public value embedded in the authorization URL.
type ChallengePair struct {
	Verifier  string
	Challenge string
}

// ChallengeGenerator produces cryptographically random verifier/challenge
// pairs. A pair is never reused across two authorizations.
type ChallengeGenerator interface {
	Generate() (*ChallengePair, error)
}

// CertificateDiscovery is the result of asking the provider which
// certificates exist for a holder's tax id.
type CertificateDiscovery struct {
	Enrolled bool
	Slots    []signatureDomain.CertificateSlot
}

// CertificateAuthorityClient is the contract with the external accredited
// certificate authority. The transport and provider-side signing algorithm
// are opaque; only the operations below matter to the flow.
type CertificateAuthorityClient interface {
	// BuildAuthorizationURL constructs the redirect target at the provider,
	// embedding the PKCE challenge, the requested scope, the code lifetime and
	// a correlation value (the document id) carried back as state. Pure URL
	// construction, no side effects.
	BuildAuthorizationURL(challenge, scope string, lifetime time.Duration, state string) string

	// DiscoverCertificates reports whether the holder identified by taxID is
	// enrolled at the provider and which certificates are available.
	DiscoverCertificates(ctx context.Context, taxID string) (*CertificateDiscovery, error)

	// ExchangeCode trades the authorization code plus the committed verifier
	// for a short-lived access credential.
	ExchangeCode(ctx context.Context, code, verifier string) (*signatureDomain.AccessCredential, error)

	// GetCertificateInfo fetches the signer's certificate metadata for the
	// trust decision.
	GetCertificateInfo(ctx context.Context, accessToken string) (*signatureDomain.CertificateInfo, error)

	// Sign submits the document bytes for signing and returns the signed
	// artifact.
	Sign(ctx context.Context, accessToken string, content []byte, documentID uuid.UUID, filename string) ([]byte, error)

	// Revoke invalidates the access credential. Best-effort: callers log
	// failures and never surface them.
	Revoke(ctx context.Context, accessToken string) error
}

// TrustPolicy decides whether a certificate issuer is acceptable for a
// legally binding signature.
type TrustPolicy interface {
	// Validate returns nil when the issuer is trusted, or an error wrapping
	// domain.ErrCertificateNotTrusted naming the offending issuer.
	Validate(info *signatureDomain.CertificateInfo) error
}

// MockSignature is the outcome of a simulated signing operation.
type MockSignature struct {
	ContentDigest   string
	SignatureDigest string
	Issuer          string
	Serial          string
	SignedAt        time.Time
}

// MockSigner produces deterministic, clearly-non-production signature
// artifacts without contacting any external authority.
type MockSigner interface {
	Sign(documentID uuid.UUID, signedAt time.Time) *MockSignature
}

// AuditSigner signs and verifies audit log entries for tamper detection.
// The secret is the raw configured value; implementations derive the actual
// signing key from it.
type AuditSigner interface {
	// Sign computes the entry's signature over its canonical form.
	Sign(secret []byte, entry *signatureDomain.AuditLogEntry) ([]byte, error)

	// Verify recomputes the signature and compares it against entry.Signature.
	// Returns nil when valid, domain.ErrAuditSignatureInvalid when the entry
	// was tampered with.
	Verify(secret []byte, entry *signatureDomain.AuditLogEntry) error
}
