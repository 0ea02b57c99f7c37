package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	apperrors "github.com/clinsign/clinsign/internal/errors"
)

// challengeGenerator implements ChallengeGenerator using the PKCE S256 method:
// the challenge is the base64url-encoded SHA-256 of the verifier.
type challengeGenerator struct{}

// Generate creates a new cryptographically secure 32-byte random verifier and
// derives its challenge. Each call returns a fresh pair.
func (g *challengeGenerator) Generate() (*ChallengePair, error) {
	// Generate 32 random bytes (256 bits)
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to generate verifier")
	}

	verifier := base64.RawURLEncoding.EncodeToString(randomBytes)

	digest := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(digest[:])

	return &ChallengePair{
		Verifier:  verifier,
		Challenge: challenge,
	}, nil
}

// NewChallengeGenerator creates a ChallengeGenerator using the S256 derivation.
func NewChallengeGenerator() ChallengeGenerator {
	return &challengeGenerator{}
}
