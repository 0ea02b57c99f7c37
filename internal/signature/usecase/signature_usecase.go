// Package usecase implements business logic orchestration for the digital signature flow.
package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/clinsign/clinsign/internal/config"
	"github.com/clinsign/clinsign/internal/database"
	apperrors "github.com/clinsign/clinsign/internal/errors"
	signatureDomain "github.com/clinsign/clinsign/internal/signature/domain"
	signatureService "github.com/clinsign/clinsign/internal/signature/service"
)

// MessageNoCertificate is returned when discovery finds no certificate for
// the holder's CPF. The message is user-facing and rendered as-is.
const MessageNoCertificate = "Nenhum certificado digital encontrado para este CPF"

// signatureUseCase implements SignatureUseCase.
type signatureUseCase struct {
	config         *config.Config
	txManager      database.TxManager
	sessionRepo    SessionRepository
	documentRepo   DocumentRepository
	auditLogRepo   AuditLogRepository
	challengeGen   signatureService.ChallengeGenerator
	providerClient signatureService.CertificateAuthorityClient
	trustPolicy    signatureService.TrustPolicy
	mockSigner     signatureService.MockSigner
	auditSigner    signatureService.AuditSigner
	logger         *slog.Logger
}

// NewSignatureUseCase creates a SignatureUseCase wired to the given
// collaborators. providerClient may be nil when the provider is unconfigured;
// in that case all real-flow operations fall back as documented on the
// interface.
func NewSignatureUseCase(
	cfg *config.Config,
	txManager database.TxManager,
	sessionRepo SessionRepository,
	documentRepo DocumentRepository,
	auditLogRepo AuditLogRepository,
	challengeGen signatureService.ChallengeGenerator,
	providerClient signatureService.CertificateAuthorityClient,
	trustPolicy signatureService.TrustPolicy,
	mockSigner signatureService.MockSigner,
	auditSigner signatureService.AuditSigner,
	logger *slog.Logger,
) SignatureUseCase {
	return &signatureUseCase{
		config:         cfg,
		txManager:      txManager,
		sessionRepo:    sessionRepo,
		documentRepo:   documentRepo,
		auditLogRepo:   auditLogRepo,
		challengeGen:   challengeGen,
		providerClient: providerClient,
		trustPolicy:    trustPolicy,
		mockSigner:     mockSigner,
		auditSigner:    auditSigner,
		logger:         logger,
	}
}

// CheckCertificate asks the provider whether the holder of taxID is enrolled.
func (s *signatureUseCase) CheckCertificate(
	ctx context.Context,
	taxID string,
) (*CheckCertificateOutput, error) {
	if !s.config.SignProviderConfigured() {
		return nil, signatureDomain.ErrProviderNotConfigured
	}

	discovery, err := s.providerClient.DiscoverCertificates(ctx, taxID)
	if err != nil {
		return nil, err
	}

	if !discovery.Enrolled || len(discovery.Slots) == 0 {
		return &CheckCertificateOutput{
			HasCertificate: false,
			Message:        MessageNoCertificate,
		}, nil
	}

	return &CheckCertificateOutput{
		HasCertificate: true,
		Certificates:   discovery.Slots,
	}, nil
}

// StartAuthorization opens a pending session for the user and builds the
// provider authorization URL.
//
// The session upsert is keyed by user id: a user restarting the flow silently
// replaces any previous pending attempt (last writer wins, no locking). When
// the provider is unconfigured the redirect is skipped entirely and the mock
// signer serves the request.
func (s *signatureUseCase) StartAuthorization(
	ctx context.Context,
	userID, documentID uuid.UUID,
) (*StartAuthorizationOutput, error) {
	document, err := s.documentRepo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if document.OwnerID != userID {
		return nil, apperrors.Wrap(apperrors.ErrForbidden, "document belongs to another user")
	}

	if document.Signed {
		return nil, signatureDomain.ErrDocumentAlreadySigned
	}

	if !s.config.SignProviderConfigured() {
		mockResult, err := s.MockSign(ctx, userID, documentID)
		if err != nil {
			return nil, err
		}
		return &StartAuthorizationOutput{Mock: true, MockResult: mockResult}, nil
	}

	pair, err := s.challengeGen.Generate()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &signatureDomain.SignatureSession{
		ID:         uuid.Must(uuid.NewV7()),
		UserID:     userID,
		DocumentID: documentID,
		Verifier:   pair.Verifier,
		Status:     signatureDomain.SessionStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.sessionRepo.Upsert(ctx, session); err != nil {
		return nil, err
	}

	authorizationURL := s.providerClient.BuildAuthorizationURL(
		pair.Challenge,
		s.config.SignProviderScope,
		s.config.SignAuthorizationTTL,
		documentID.String(),
	)

	return &StartAuthorizationOutput{AuthorizationURL: authorizationURL}, nil
}

// CompleteSigning drives the synchronous exchange-validate-sign sequence at
// callback time.
//
// The access credential obtained from the exchange is treated as a scoped
// resource: revocation is attempted on every exit path after a successful
// exchange (success, trust rejection, signing failure). Revocation failures
// are logged and never surfaced.
func (s *signatureUseCase) CompleteSigning(
	ctx context.Context,
	input *CompleteSigningInput,
) (*CompleteSigningOutput, error) {
	session, err := s.sessionRepo.GetByUserID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if !session.IsPending() {
		return nil, signatureDomain.ErrSessionNotFound
	}

	// The upsert is keyed by user id, so a flow restarted from another tab
	// replaces the pending session. The callback must not sign a document the
	// caller never asked for.
	if session.DocumentID != input.DocumentID {
		return nil, apperrors.Wrap(
			signatureDomain.ErrSessionNotFound,
			"pending session is bound to another document",
		)
	}

	document, err := s.documentRepo.Get(ctx, session.DocumentID)
	if err != nil {
		return nil, err
	}
	if document.Signed {
		return nil, signatureDomain.ErrDocumentAlreadySigned
	}

	credential, err := s.providerClient.ExchangeCode(ctx, input.AuthorizationCode, session.Verifier)
	if err != nil {
		s.recordFailure(ctx, session, document, signatureDomain.AuditActionSign, err.Error())
		return nil, err
	}
	defer s.revokeCredential(ctx, credential.AccessToken)

	info, err := s.providerClient.GetCertificateInfo(ctx, credential.AccessToken)
	if err != nil {
		s.recordFailure(ctx, session, document, signatureDomain.AuditActionSign, err.Error())
		return nil, err
	}

	if err := s.trustPolicy.Validate(info); err != nil {
		s.recordFailure(ctx, session, document, signatureDomain.AuditActionSign, err.Error())
		return nil, err
	}

	signedArtifact, err := s.providerClient.Sign(
		ctx, credential.AccessToken, input.Content, document.ID, document.Filename,
	)
	if err != nil {
		s.recordFailure(ctx, session, document, signatureDomain.AuditActionSign, err.Error())
		return nil, err
	}

	// Two independently meaningful digests: one over the original bytes, one
	// over the signed artifact.
	contentDigest := digestHex(input.Content)
	signatureDigest := digestHex(signedArtifact)

	signedAt := time.Now().UTC()
	maskedSerial := signatureDomain.MaskSerial(info.Serial)
	maskedIdentity := signatureDomain.MaskTaxID(credential.AuthorizedIdentity)
	validationURL := s.validationURL(document.ValidationToken)

	document.ApplySignature(
		info.Issuer,
		maskedSerial,
		contentDigest,
		signatureDigest,
		validationURL,
		signedAt,
		map[string]any{
			"format":              signatureDomain.SignatureFormat,
			"authorized_identity": maskedIdentity,
			"signed_at":           signedAt.Format(time.RFC3339),
		},
	)
	document.UpdatedAt = signedAt

	session.Verifier = ""
	session.Status = signatureDomain.SessionStatusCompleted
	session.UpdatedAt = signedAt

	entry := &signatureDomain.AuditLogEntry{
		ID:                uuid.Must(uuid.NewV7()),
		DocumentID:        document.ID,
		UserID:            session.UserID,
		Action:            signatureDomain.AuditActionSign,
		Success:           true,
		CertificateIssuer: info.Issuer,
		CertificateSerial: maskedSerial,
		Metadata: map[string]any{
			"content_digest":   contentDigest,
			"signature_digest": signatureDigest,
			"format":           signatureDomain.SignatureFormat,
			"signed_at":        signedAt.Format(time.RFC3339),
		},
		CreatedAt: signedAt,
	}

	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.documentRepo.Update(ctx, document); err != nil {
			return err
		}
		if err := s.sessionRepo.UpdateStatus(ctx, session); err != nil {
			return err
		}
		return s.appendAuditEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	return &CompleteSigningOutput{
		SignedArtifact:     signedArtifact,
		ContentDigest:      contentDigest,
		SignatureDigest:    signatureDigest,
		CertificateAlias:   info.Alias,
		CertificateIssuer:  info.Issuer,
		AuthorizedIdentity: maskedIdentity,
		SignedAt:           signedAt,
		ValidationToken:    document.ValidationToken,
		ValidationURL:      validationURL,
	}, nil
}

// MockSign signs the document locally without contacting any authority.
func (s *signatureUseCase) MockSign(
	ctx context.Context,
	userID, documentID uuid.UUID,
) (*MockSignOutput, error) {
	document, err := s.documentRepo.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if document.OwnerID != userID {
		return nil, apperrors.Wrap(apperrors.ErrForbidden, "document belongs to another user")
	}

	if document.Signed {
		return nil, signatureDomain.ErrDocumentAlreadySigned
	}

	signedAt := time.Now().UTC()
	mock := s.mockSigner.Sign(document.ID, signedAt)
	validationURL := s.validationURL(document.ValidationToken)

	document.ApplySignature(
		mock.Issuer,
		mock.Serial,
		mock.ContentDigest,
		mock.SignatureDigest,
		validationURL,
		mock.SignedAt,
		map[string]any{
			"format":    signatureDomain.SignatureFormat,
			"mock":      true,
			"signed_at": mock.SignedAt.Format(time.RFC3339),
		},
	)
	document.UpdatedAt = signedAt

	entry := &signatureDomain.AuditLogEntry{
		ID:                uuid.Must(uuid.NewV7()),
		DocumentID:        document.ID,
		UserID:            userID,
		Action:            signatureDomain.AuditActionSignMock,
		Success:           true,
		CertificateIssuer: mock.Issuer,
		CertificateSerial: mock.Serial,
		Metadata: map[string]any{
			"content_digest":   mock.ContentDigest,
			"signature_digest": mock.SignatureDigest,
			"mock":             true,
			"signed_at":        mock.SignedAt.Format(time.RFC3339),
		},
		CreatedAt: signedAt,
	}

	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.documentRepo.Update(ctx, document); err != nil {
			return err
		}

		// A pending session only exists when the user came through
		// authorization; the explicit sign-mock action has none.
		session, err := s.sessionRepo.GetByUserID(ctx, userID)
		if err == nil && session.IsPending() {
			session.Verifier = ""
			session.Status = signatureDomain.SessionStatusCompleted
			session.UpdatedAt = signedAt
			if err := s.sessionRepo.UpdateStatus(ctx, session); err != nil {
				return err
			}
		}

		return s.appendAuditEntry(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	return &MockSignOutput{
		ContentDigest:     mock.ContentDigest,
		SignatureDigest:   mock.SignatureDigest,
		CertificateIssuer: mock.Issuer,
		CertificateSerial: mock.Serial,
		SignedAt:          mock.SignedAt,
		ValidationToken:   document.ValidationToken,
		ValidationURL:     validationURL,
	}, nil
}

// Resume reconstructs the observable flow state from storage plus the inbound
// callback parameters. Nothing in process survives the external redirect, so
// this is the only entry point after the user returns.
func (s *signatureUseCase) Resume(ctx context.Context, input *ResumeInput) (*ResumeOutput, error) {
	if input.CallbackError != "" {
		// The provider reported an authorization error; no session row is touched.
		return &ResumeOutput{
			State:  signatureDomain.FlowStateError,
			Reason: input.CallbackError,
		}, nil
	}

	// The provider echoes back the state committed at authorization time,
	// which carries the document id as the correlation value. A mismatched
	// echo belongs to a different signing attempt.
	if input.State != "" && input.State != input.DocumentID.String() {
		return &ResumeOutput{
			State:  signatureDomain.FlowStateError,
			Reason: "callback state does not match the requested document",
		}, nil
	}

	document, err := s.documentRepo.Get(ctx, input.DocumentID)
	if err != nil {
		return nil, err
	}

	if input.Code != "" && !document.Signed {
		return &ResumeOutput{State: signatureDomain.FlowStateSigning}, nil
	}

	if document.Signed {
		return &ResumeOutput{State: signatureDomain.FlowStateCompleted}, nil
	}

	return &ResumeOutput{State: signatureDomain.FlowStateReady}, nil
}

// ValidateDocument resolves a public validation token to its document.
func (s *signatureUseCase) ValidateDocument(
	ctx context.Context,
	token string,
) (*signatureDomain.SignableDocument, error) {
	return s.documentRepo.GetByValidationToken(ctx, token)
}

// ListAuditLogs retrieves a document's audit entries, newest first.
func (s *signatureUseCase) ListAuditLogs(
	ctx context.Context,
	documentID uuid.UUID,
	offset, limit int,
) ([]*signatureDomain.AuditLogEntry, error) {
	return s.auditLogRepo.ListByDocumentID(ctx, documentID, offset, limit)
}

// recordFailure marks the session failed and appends one failure audit entry.
// The document is left untouched. Persistence errors here are logged, not
// propagated: the original failure is what the caller must see.
func (s *signatureUseCase) recordFailure(
	ctx context.Context,
	session *signatureDomain.SignatureSession,
	document *signatureDomain.SignableDocument,
	action, reason string,
) {
	now := time.Now().UTC()

	session.Verifier = ""
	session.Status = signatureDomain.SessionStatusFailed
	session.UpdatedAt = now
	if err := s.sessionRepo.UpdateStatus(ctx, session); err != nil {
		s.logger.ErrorContext(ctx, "failed to mark signature session failed",
			slog.String("session_id", session.ID.String()),
			slog.Any("error", err),
		)
	}

	entry := &signatureDomain.AuditLogEntry{
		ID:           uuid.Must(uuid.NewV7()),
		DocumentID:   document.ID,
		UserID:       session.UserID,
		Action:       action,
		Success:      false,
		ErrorMessage: reason,
		CreatedAt:    now,
	}
	if err := s.appendAuditEntry(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to append failure audit entry",
			slog.String("document_id", document.ID.String()),
			slog.Any("error", err),
		)
	}
}

// appendAuditEntry signs the entry when audit signing is configured, then
// appends it to the log.
func (s *signatureUseCase) appendAuditEntry(
	ctx context.Context,
	entry *signatureDomain.AuditLogEntry,
) error {
	if s.config.AuditSigningConfigured() {
		signature, err := s.auditSigner.Sign([]byte(s.config.AuditSigningSecret), entry)
		if err != nil {
			return apperrors.Wrap(err, "failed to sign audit log entry")
		}
		entry.Signature = signature
	}

	return s.auditLogRepo.Create(ctx, entry)
}

// revokeCredential invalidates the access credential at the provider.
// Best-effort: failures are a log-only warning, never surfaced to the caller
// and never written as a failed audit entry.
func (s *signatureUseCase) revokeCredential(ctx context.Context, accessToken string) {
	if err := s.providerClient.Revoke(ctx, accessToken); err != nil {
		s.logger.WarnContext(ctx, "failed to revoke access credential",
			slog.Any("error", err),
		)
	}
}

func (s *signatureUseCase) validationURL(token string) string {
	return fmt.Sprintf("%s/v1/validation/%s", s.config.ValidationBaseURL, token)
}

func digestHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
