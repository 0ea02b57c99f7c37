package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	signatureUsecase "github.com/clinsign/clinsign/internal/signature/usecase"
)

// RunVerifyAuditLogs verifies the cryptographic integrity of audit log entries
// within a time range. Recomputes HMAC-SHA256 signatures against the
// configured signing secret to detect tampering.
//
// Requirements: Database must be migrated and AUDIT_SIGNING_SECRET set.
func RunVerifyAuditLogs(
	ctx context.Context,
	verifier signatureUsecase.AuditVerifier,
	logger *slog.Logger,
	startDate, endDate string,
	format string,
	io IOTuple,
) error {
	start, err := parseDate(startDate)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}

	end, err := parseDate(endDate)
	if err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}

	if !end.After(start) {
		return fmt.Errorf("end date must be after start date")
	}

	logger.Info("verifying audit logs",
		slog.Time("start_date", start),
		slog.Time("end_date", end),
	)

	report, err := verifier.VerifyRange(ctx, start, end)
	if err != nil {
		return fmt.Errorf("failed to verify audit logs: %w", err)
	}

	if format == "json" {
		outputVerifyJSON(report, io.Writer)
	} else {
		outputVerifyText(report, start, end, io.Writer)
	}

	logger.Info("verification completed",
		slog.Int64("total_checked", report.TotalChecked),
		slog.Int64("valid", report.ValidCount),
		slog.Int64("invalid", report.InvalidCount),
		slog.Int64("unsigned", report.UnsignedCount),
	)

	if report.InvalidCount > 0 {
		return fmt.Errorf("integrity check failed: %d invalid signature(s)", report.InvalidCount)
	}

	return nil
}

// parseDate parses "YYYY-MM-DD" or "YYYY-MM-DD HH:MM:SS" into a UTC time.
func parseDate(dateStr string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02 15:04:05", dateStr); err == nil {
		return t, nil
	}

	t, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf(
			"invalid date format (expected YYYY-MM-DD or YYYY-MM-DD HH:MM:SS): %s",
			dateStr,
		)
	}

	return t, nil
}

// outputVerifyText outputs the verification result in human-readable text format.
func outputVerifyText(
	report *signatureUsecase.AuditVerificationReport,
	start, end time.Time,
	writer io.Writer,
) {
	_, _ = fmt.Fprintf(writer, "Audit Log Integrity Verification\n")
	_, _ = fmt.Fprintf(writer, "=================================\n\n")
	_, _ = fmt.Fprintf(writer,
		"Time Range: %s to %s\n\n",
		start.Format("2006-01-02 15:04:05"),
		end.Format("2006-01-02 15:04:05"),
	)

	_, _ = fmt.Fprintf(writer, "Total Checked:  %d\n", report.TotalChecked)
	_, _ = fmt.Fprintf(writer, "Signed:         %d\n", report.SignedCount)
	_, _ = fmt.Fprintf(writer, "Unsigned:       %d (legacy)\n", report.UnsignedCount)
	_, _ = fmt.Fprintf(writer, "Valid:          %d\n", report.ValidCount)
	_, _ = fmt.Fprintf(writer, "Invalid:        %d\n\n", report.InvalidCount)

	switch {
	case report.InvalidCount > 0:
		_, _ = fmt.Fprintf(writer, "WARNING: %d entry(ies) failed integrity check!\n\n", report.InvalidCount)
		_, _ = fmt.Fprintf(writer, "Invalid Entry IDs:\n")
		for _, id := range report.InvalidEntries {
			_, _ = fmt.Fprintf(writer, "  - %s\n", id)
		}
		_, _ = fmt.Fprintf(writer, "\nStatus: FAILED\n")
	case report.TotalChecked == 0:
		_, _ = fmt.Fprintf(writer, "Status: No entries found in specified time range\n")
	default:
		_, _ = fmt.Fprintf(writer, "Status: PASSED\n")
	}
}

// outputVerifyJSON outputs the verification result in JSON format for machine consumption.
func outputVerifyJSON(report *signatureUsecase.AuditVerificationReport, writer io.Writer) {
	invalidIDs := make([]string, 0, len(report.InvalidEntries))
	for _, id := range report.InvalidEntries {
		invalidIDs = append(invalidIDs, id.String())
	}

	result := map[string]interface{}{
		"total_checked":   report.TotalChecked,
		"signed_count":    report.SignedCount,
		"unsigned_count":  report.UnsignedCount,
		"valid_count":     report.ValidCount,
		"invalid_count":   report.InvalidCount,
		"invalid_entries": invalidIDs,
		"passed":          report.InvalidCount == 0,
	}
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(result)
}
