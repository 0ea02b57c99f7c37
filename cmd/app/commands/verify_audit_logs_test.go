package commands

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	signatureUsecase "github.com/clinsign/clinsign/internal/signature/usecase"
)

// mockAuditVerifier is a hand-written mock for the audit verifier.
type mockAuditVerifier struct {
	mock.Mock
}

func (m *mockAuditVerifier) VerifyRange(
	ctx context.Context,
	start, end time.Time,
) (*signatureUsecase.AuditVerificationReport, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signatureUsecase.AuditVerificationReport), args.Error(1)
}

func TestRunVerifyAuditLogs(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("all-valid-text-output", func(t *testing.T) {
		verifier := &mockAuditVerifier{}
		verifier.On("VerifyRange", ctx,
			time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		).Return(&signatureUsecase.AuditVerificationReport{
			TotalChecked:  10,
			SignedCount:   8,
			UnsignedCount: 2,
			ValidCount:    8,
		}, nil)

		var out bytes.Buffer
		io := IOTuple{Writer: &out}

		err := RunVerifyAuditLogs(ctx, verifier, logger, "2025-03-01", "2025-04-01", "text", io)

		require.NoError(t, err)
		require.Contains(t, out.String(), "Status: PASSED")
		require.Contains(t, out.String(), "Total Checked:  10")
		verifier.AssertExpectations(t)
	})

	t.Run("invalid-entries-fail-the-command", func(t *testing.T) {
		tamperedID := uuid.Must(uuid.NewV7())
		verifier := &mockAuditVerifier{}
		verifier.On("VerifyRange", ctx, mock.Anything, mock.Anything).
			Return(&signatureUsecase.AuditVerificationReport{
				TotalChecked:   3,
				SignedCount:    3,
				ValidCount:     2,
				InvalidCount:   1,
				InvalidEntries: []uuid.UUID{tamperedID},
			}, nil)

		var out bytes.Buffer
		io := IOTuple{Writer: &out}

		err := RunVerifyAuditLogs(ctx, verifier, logger, "2025-03-01", "2025-04-01", "text", io)

		require.Error(t, err)
		require.Contains(t, err.Error(), "integrity check failed")
		require.Contains(t, out.String(), "Status: FAILED")
		require.Contains(t, out.String(), tamperedID.String())
	})

	t.Run("json-output", func(t *testing.T) {
		verifier := &mockAuditVerifier{}
		verifier.On("VerifyRange", ctx, mock.Anything, mock.Anything).
			Return(&signatureUsecase.AuditVerificationReport{
				TotalChecked: 5,
				SignedCount:  5,
				ValidCount:   5,
			}, nil)

		var out bytes.Buffer
		io := IOTuple{Writer: &out}

		err := RunVerifyAuditLogs(ctx, verifier, logger, "2025-03-01", "2025-04-01", "json", io)

		require.NoError(t, err)
		require.Contains(t, out.String(), `"passed": true`)
		require.Contains(t, out.String(), `"valid_count": 5`)
	})

	t.Run("accepts-full-datetime", func(t *testing.T) {
		verifier := &mockAuditVerifier{}
		verifier.On("VerifyRange", ctx,
			time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC),
			time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC),
		).Return(&signatureUsecase.AuditVerificationReport{}, nil)

		var out bytes.Buffer
		io := IOTuple{Writer: &out}

		err := RunVerifyAuditLogs(
			ctx, verifier, logger,
			"2025-03-01 08:30:00", "2025-03-01 18:00:00", "text", io,
		)

		require.NoError(t, err)
		verifier.AssertExpectations(t)
	})

	t.Run("invalid-start-date", func(t *testing.T) {
		verifier := &mockAuditVerifier{}

		var out bytes.Buffer
		io := IOTuple{Writer: &out}

		err := RunVerifyAuditLogs(ctx, verifier, logger, "not-a-date", "2025-04-01", "text", io)

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid start date")
		verifier.AssertNotCalled(t, "VerifyRange", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("end-before-start", func(t *testing.T) {
		verifier := &mockAuditVerifier{}

		var out bytes.Buffer
		io := IOTuple{Writer: &out}

		err := RunVerifyAuditLogs(ctx, verifier, logger, "2025-04-01", "2025-03-01", "text", io)

		require.Error(t, err)
		require.Contains(t, err.Error(), "end date must be after start date")
		verifier.AssertNotCalled(t, "VerifyRange", mock.Anything, mock.Anything, mock.Anything)
	})
}
