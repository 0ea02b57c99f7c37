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
	authUsecase "github.com/clinsign/clinsign/internal/auth/usecase"
)

// RunCreateUser creates a new platform user that can authenticate and sign
// documents. Outputs the user ID in either text or JSON format.
//
// Requirements: Database must be migrated and accessible.
func RunCreateUser(
	ctx context.Context,
	userRepo authUsecase.UserRepository,
	logger *slog.Logger,
	name string,
	email string,
	taxID string,
	isActive bool,
	format string,
	io IOTuple,
) error {
	logger.Info("creating new user", slog.String("name", name))

	user := &authDomain.User{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      name,
		Email:     email,
		TaxID:     taxID,
		IsActive:  isActive,
		CreatedAt: time.Now().UTC(),
	}

	if err := userRepo.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if format == "json" {
		outputUserJSON(user, io.Writer)
	} else {
		outputUserText(user, io.Writer)
	}

	logger.Info("user created successfully",
		slog.String("user_id", user.ID.String()),
		slog.String("name", name),
		slog.Bool("is_active", isActive),
	)

	return nil
}

// outputUserText outputs the result in human-readable text format.
func outputUserText(user *authDomain.User, writer io.Writer) {
	_, _ = fmt.Fprintln(writer, "User created successfully!")
	_, _ = fmt.Fprintf(writer, "ID: %s\n", user.ID)
	_, _ = fmt.Fprintf(writer, "Name: %s\n", user.Name)
	_, _ = fmt.Fprintf(writer, "Email: %s\n", user.Email)
}

// outputUserJSON outputs the result in JSON format for machine consumption.
func outputUserJSON(user *authDomain.User, writer io.Writer) {
	result := map[string]interface{}{
		"id":        user.ID.String(),
		"name":      user.Name,
		"email":     user.Email,
		"is_active": user.IsActive,
	}
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(result)
}
