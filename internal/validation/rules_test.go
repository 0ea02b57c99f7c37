package validation

import (
	"encoding/base64"
	"testing"

	validation "github.com/jellydator/validation"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/clinsign/clinsign/internal/errors"
)

func TestWrapValidationError(t *testing.T) {
	t.Run("WrapsAsInvalidInput", func(t *testing.T) {
		err := WrapValidationError(validation.NewError("validation_not_blank", "must not be blank"))

		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})

	t.Run("NilStaysNil", func(t *testing.T) {
		assert.Nil(t, WrapValidationError(nil))
	})
}

func TestNotBlank(t *testing.T) {
	tests := []struct {
		name        string
		value       string
		expectError bool
	}{
		{"NonEmptyString", "value", false},
		{"EmptyString", "", true},
		{"OnlyWhitespace", "   \t", true},
		{"WhitespacePadded", " value ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Validate(tt.value, NotBlank)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBase64(t *testing.T) {
	t.Run("ValidBase64", func(t *testing.T) {
		value := base64.StdEncoding.EncodeToString([]byte("%PDF-1.7 test document"))
		assert.NoError(t, validation.Validate(value, Base64))
	})

	t.Run("InvalidBase64", func(t *testing.T) {
		assert.Error(t, validation.Validate("not-base64!!!", Base64))
	})

	t.Run("EmptyStringAllowed", func(t *testing.T) {
		assert.NoError(t, validation.Validate("", Base64))
	})
}
