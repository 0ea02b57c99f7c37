package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	signatureDomain "github.com/clinsign/clinsign/internal/signature/domain"
)

// mockSigner implements MockSigner. It performs the same state transitions as
// the real flow but derives both digests deterministically from the document
// id and the signing instant, so two invocations at different timestamps
// produce different values.
type mockSigner struct{}

// Sign produces a simulated signature for the document. No external authority
// is contacted and there is no access credential to revoke.
func (m *mockSigner) Sign(documentID uuid.UUID, signedAt time.Time) *MockSignature {
	seed := fmt.Sprintf("%s:%d", documentID, signedAt.UnixNano())

	contentDigest := sha256.Sum256([]byte("content:" + seed))
	signatureDigest := sha256.Sum256([]byte("signature:" + seed))
	serial := sha256.Sum256([]byte("serial:" + seed))

	return &MockSignature{
		ContentDigest:   hex.EncodeToString(contentDigest[:]),
		SignatureDigest: hex.EncodeToString(signatureDigest[:]),
		Issuer:          signatureDomain.MockCertificateIssuer,
		Serial:          hex.EncodeToString(serial[:8]),
		SignedAt:        signedAt,
	}
}

// NewMockSigner creates a MockSigner.
func NewMockSigner() MockSigner {
	return &mockSigner{}
}
