package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/clinsign/clinsign/internal/auth/domain"
	"github.com/clinsign/clinsign/internal/testutil"
)

func newTestLoginSession(userID uuid.UUID, tokenHash string) *authDomain.LoginSession {
	now := time.Now().UTC()
	return &authDomain.LoginSession{
		ID:        uuid.Must(uuid.NewV7()),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: now.Add(24 * time.Hour),
		CreatedAt: now,
	}
}

func TestNewPostgreSQLLoginSessionRepository(t *testing.T) {
	repo := NewPostgreSQLLoginSessionRepository(nil)
	assert.NotNil(t, repo)
}

func TestPostgreSQLLoginSessionRepository(t *testing.T) {
	testutil.SkipIfNoPostgres(t)

	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)

	repo := NewPostgreSQLLoginSessionRepository(db)
	ctx := context.Background()

	t.Run("Success_CreateAndGetByTokenHash", func(t *testing.T) {
		defer testutil.CleanupPostgresDB(t, db)

		userID := testutil.CreateTestUser(t, db, "postgres", "12345678900")
		session := newTestLoginSession(userID, "a1b2c3d4e5f6")
		require.NoError(t, repo.Create(ctx, session))

		found, err := repo.GetByTokenHash(ctx, "a1b2c3d4e5f6")
		require.NoError(t, err)

		assert.Equal(t, session.ID, found.ID)
		assert.Equal(t, userID, found.UserID)
		assert.Equal(t, session.TokenHash, found.TokenHash)
		assert.WithinDuration(t, session.ExpiresAt, found.ExpiresAt, time.Second)
		assert.False(t, found.IsExpired())
	})

	t.Run("Error_GetByTokenHashNotFound", func(t *testing.T) {
		defer testutil.CleanupPostgresDB(t, db)

		found, err := repo.GetByTokenHash(ctx, "unknown-hash")
		assert.Nil(t, found)
		assert.ErrorIs(t, err, authDomain.ErrLoginSessionNotFound)
	})
}
