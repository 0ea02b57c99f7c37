package commands

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/clinsign/clinsign/internal/auth/domain"
)

// mockUserRepository is a hand-written mock for the user repository.
type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *authDomain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) Get(ctx context.Context, userID uuid.UUID) (*authDomain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.User), args.Error(1)
}

func TestRunCreateUser(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("text-output", func(t *testing.T) {
		mockRepo := &mockUserRepository{}
		mockRepo.On("Create", ctx, mock.MatchedBy(func(user *authDomain.User) bool {
			return user.Name == "Dra. Ana Souza" &&
				user.Email == "ana.souza@clinic.test" &&
				user.TaxID == "12345678900" &&
				user.IsActive &&
				user.ID != uuid.Nil
		})).Return(nil)

		var out bytes.Buffer
		io := IOTuple{Writer: &out}

		err := RunCreateUser(
			ctx,
			mockRepo,
			logger,
			"Dra. Ana Souza",
			"ana.souza@clinic.test",
			"12345678900",
			true,
			"text",
			io,
		)

		require.NoError(t, err)
		require.Contains(t, out.String(), "User created successfully")
		require.Contains(t, out.String(), "Dra. Ana Souza")
		mockRepo.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		mockRepo := &mockUserRepository{}
		mockRepo.On("Create", ctx, mock.Anything).Return(nil)

		var out bytes.Buffer
		io := IOTuple{Writer: &out}

		err := RunCreateUser(
			ctx,
			mockRepo,
			logger,
			"Dr. Bruno Lima",
			"bruno.lima@clinic.test",
			"98765432100",
			true,
			"json",
			io,
		)

		require.NoError(t, err)
		require.Contains(t, out.String(), `"name": "Dr. Bruno Lima"`)
		mockRepo.AssertExpectations(t)
	})

	t.Run("repository-error", func(t *testing.T) {
		mockRepo := &mockUserRepository{}
		mockRepo.On("Create", ctx, mock.Anything).Return(errors.New("duplicate email"))

		var out bytes.Buffer
		io := IOTuple{Writer: &out}

		err := RunCreateUser(
			ctx,
			mockRepo,
			logger,
			"Dra. Ana Souza",
			"ana.souza@clinic.test",
			"12345678900",
			true,
			"text",
			io,
		)

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to create user")
	})
}
