package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinsign/clinsign/internal/metrics"
	signatureDomain "github.com/clinsign/clinsign/internal/signature/domain"
)

// signatureUseCaseWithMetrics decorates SignatureUseCase with metrics instrumentation.
type signatureUseCaseWithMetrics struct {
	next    SignatureUseCase
	metrics metrics.BusinessMetrics
}

// NewSignatureUseCaseWithMetrics wraps a SignatureUseCase with metrics recording.
func NewSignatureUseCaseWithMetrics(useCase SignatureUseCase, m metrics.BusinessMetrics) SignatureUseCase {
	return &signatureUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// CheckCertificate records metrics for certificate discovery operations.
func (s *signatureUseCaseWithMetrics) CheckCertificate(
	ctx context.Context,
	taxID string,
) (*CheckCertificateOutput, error) {
	start := time.Now()
	output, err := s.next.CheckCertificate(ctx, taxID)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "signature", "check_certificate", status)
	s.metrics.RecordDuration(ctx, "signature", "check_certificate", time.Since(start), status)

	return output, err
}

// StartAuthorization records metrics for authorization start operations.
func (s *signatureUseCaseWithMetrics) StartAuthorization(
	ctx context.Context,
	userID, documentID uuid.UUID,
) (*StartAuthorizationOutput, error) {
	start := time.Now()
	output, err := s.next.StartAuthorization(ctx, userID, documentID)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "signature", "authorize", status)
	s.metrics.RecordDuration(ctx, "signature", "authorize", time.Since(start), status)

	return output, err
}

// CompleteSigning records metrics for the exchange-validate-sign sequence.
func (s *signatureUseCaseWithMetrics) CompleteSigning(
	ctx context.Context,
	input *CompleteSigningInput,
) (*CompleteSigningOutput, error) {
	start := time.Now()
	output, err := s.next.CompleteSigning(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "signature", "sign", status)
	s.metrics.RecordDuration(ctx, "signature", "sign", time.Since(start), status)

	return output, err
}

// MockSign records metrics for mock signing operations.
func (s *signatureUseCaseWithMetrics) MockSign(
	ctx context.Context,
	userID, documentID uuid.UUID,
) (*MockSignOutput, error) {
	start := time.Now()
	output, err := s.next.MockSign(ctx, userID, documentID)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "signature", "sign_mock", status)
	s.metrics.RecordDuration(ctx, "signature", "sign_mock", time.Since(start), status)

	return output, err
}

// Resume records metrics for flow state resolution.
func (s *signatureUseCaseWithMetrics) Resume(
	ctx context.Context,
	input *ResumeInput,
) (*ResumeOutput, error) {
	start := time.Now()
	output, err := s.next.Resume(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "signature", "resume", status)
	s.metrics.RecordDuration(ctx, "signature", "resume", time.Since(start), status)

	return output, err
}

// ValidateDocument records metrics for public validation lookups.
func (s *signatureUseCaseWithMetrics) ValidateDocument(
	ctx context.Context,
	token string,
) (*signatureDomain.SignableDocument, error) {
	start := time.Now()
	document, err := s.next.ValidateDocument(ctx, token)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "signature", "validate_document", status)
	s.metrics.RecordDuration(ctx, "signature", "validate_document", time.Since(start), status)

	return document, err
}

// ListAuditLogs records metrics for audit listing operations.
func (s *signatureUseCaseWithMetrics) ListAuditLogs(
	ctx context.Context,
	documentID uuid.UUID,
	offset, limit int,
) ([]*signatureDomain.AuditLogEntry, error) {
	start := time.Now()
	entries, err := s.next.ListAuditLogs(ctx, documentID, offset, limit)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "signature", "list_audit_logs", status)
	s.metrics.RecordDuration(ctx, "signature", "list_audit_logs", time.Since(start), status)

	return entries, err
}
