package service

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChallengeGenerator_Generate(t *testing.T) {
	generator := NewChallengeGenerator()

	t.Run("ChallengeIsS256OfVerifier", func(t *testing.T) {
		pair, err := generator.Generate()
		require.NoError(t, err)

		digest := sha256.Sum256([]byte(pair.Verifier))
		expected := base64.RawURLEncoding.EncodeToString(digest[:])

		assert.Equal(t, expected, pair.Challenge)
	})

	t.Run("VerifierIsNeverReused", func(t *testing.T) {
		seen := make(map[string]bool)
		for range 50 {
			pair, err := generator.Generate()
			require.NoError(t, err)
			assert.False(t, seen[pair.Verifier], "verifier reused across authorizations")
			seen[pair.Verifier] = true
		}
	})

	t.Run("VerifierIsURLSafe", func(t *testing.T) {
		pair, err := generator.Generate()
		require.NoError(t, err)

		_, err = base64.RawURLEncoding.DecodeString(pair.Verifier)
		assert.NoError(t, err)
		assert.NotContains(t, pair.Verifier, "+")
		assert.NotContains(t, pair.Verifier, "/")
		assert.NotContains(t, pair.Verifier, "=")
	})
}
