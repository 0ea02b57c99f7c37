package usecase

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain verifies that no goroutines leak from the use case tests.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
