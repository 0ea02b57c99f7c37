package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/clinsign/clinsign/internal/auth/domain"
	authService "github.com/clinsign/clinsign/internal/auth/service"
	authUsecase "github.com/clinsign/clinsign/internal/auth/usecase"
)

// createLoginSessionOutput holds the data reported after issuing a session.
type createLoginSessionOutput struct {
	SessionID  uuid.UUID
	UserID     uuid.UUID
	PlainToken string
	ExpiresAt  time.Time
}

// RunCreateLoginSession issues a session token for an existing user. The plain
// token is printed exactly once; only its hash is persisted.
//
// Requirements: Database must be migrated and accessible.
func RunCreateLoginSession(
	ctx context.Context,
	userRepo authUsecase.UserRepository,
	loginSessionRepo authUsecase.LoginSessionRepository,
	tokenService authService.TokenService,
	logger *slog.Logger,
	userIDStr string,
	duration time.Duration,
	format string,
	io IOTuple,
) error {
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	user, err := userRepo.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsActive {
		return fmt.Errorf("user %s is not active", userID)
	}

	plainToken, tokenHash, err := tokenService.GenerateToken()
	if err != nil {
		return fmt.Errorf("failed to generate session token: %w", err)
	}

	now := time.Now().UTC()
	session := &authDomain.LoginSession{
		ID:        uuid.Must(uuid.NewV7()),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: now.Add(duration),
		CreatedAt: now,
	}

	if err := loginSessionRepo.Create(ctx, session); err != nil {
		return fmt.Errorf("failed to create login session: %w", err)
	}

	output := &createLoginSessionOutput{
		SessionID:  session.ID,
		UserID:     userID,
		PlainToken: plainToken,
		ExpiresAt:  session.ExpiresAt,
	}

	if format == "json" {
		outputLoginSessionJSON(output, io.Writer)
	} else {
		outputLoginSessionText(output, io.Writer)
	}

	logger.Info("login session created successfully",
		slog.String("session_id", session.ID.String()),
		slog.String("user_id", userID.String()),
	)

	return nil
}

// outputLoginSessionText outputs the result in human-readable text format.
func outputLoginSessionText(output *createLoginSessionOutput, writer io.Writer) {
	_, _ = fmt.Fprintln(writer, "Login session created successfully!")
	_, _ = fmt.Fprintf(writer, "Session ID: %s\n", output.SessionID)
	_, _ = fmt.Fprintf(writer, "User ID: %s\n", output.UserID)
	_, _ = fmt.Fprintf(writer, "Token: %s\n", output.PlainToken)
	_, _ = fmt.Fprintf(writer, "Expires at: %s\n", output.ExpiresAt.Format(time.RFC3339))
	_, _ = fmt.Fprintln(writer, "\nStore the token securely - it cannot be recovered later.")
}

// outputLoginSessionJSON outputs the result in JSON format for machine consumption.
func outputLoginSessionJSON(output *createLoginSessionOutput, writer io.Writer) {
	result := map[string]interface{}{
		"session_id": output.SessionID.String(),
		"user_id":    output.UserID.String(),
		"token":      output.PlainToken,
		"expires_at": output.ExpiresAt.Format(time.RFC3339),
	}
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(result)
}
