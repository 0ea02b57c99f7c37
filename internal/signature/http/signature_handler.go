// Package http provides HTTP handlers for the digital signature flow.
package http

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authHTTP "github.com/clinsign/clinsign/internal/auth/http"
	apperrors "github.com/clinsign/clinsign/internal/errors"
	"github.com/clinsign/clinsign/internal/httputil"
	signatureDomain "github.com/clinsign/clinsign/internal/signature/domain"
	"github.com/clinsign/clinsign/internal/signature/http/dto"
	signatureUseCase "github.com/clinsign/clinsign/internal/signature/usecase"
	customValidation "github.com/clinsign/clinsign/internal/validation"
)

// InvalidCertificateCode is the machine-readable code returned when the
// signer's certificate fails the trust decision.
const InvalidCertificateCode = "INVALID_CERTIFICATE"

// SignatureHandler exposes the action-dispatched signature endpoint.
//
// GET  /v1/signature?action=check-certificate
// GET  /v1/signature?action=authorize&prescriptionId=...
// GET  /v1/signature?action=resume&prescriptionId=...&code=...&state=...&error=...
// POST /v1/signature {action: "sign" | "sign-mock", ...}
//
// All routes require an authenticated user in the request context.
type SignatureHandler struct {
	useCase signatureUseCase.SignatureUseCase
	logger  *slog.Logger
}

// NewSignatureHandler creates a new signature handler with required dependencies.
func NewSignatureHandler(useCase signatureUseCase.SignatureUseCase, logger *slog.Logger) *SignatureHandler {
	return &SignatureHandler{
		useCase: useCase,
		logger:  logger,
	}
}

// GetHandler dispatches GET requests on the signature endpoint by action.
func (h *SignatureHandler) GetHandler(c *gin.Context) {
	user, ok := authHTTP.GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	switch c.Query("action") {
	case dto.ActionCheckCertificate:
		h.checkCertificate(c, user.TaxID)
	case dto.ActionAuthorize:
		h.authorize(c, user.ID)
	case dto.ActionResume:
		h.resume(c, user.ID)
	case "":
		httputil.HandleBadRequestGin(c, fmt.Errorf("missing action parameter"), h.logger)
	default:
		httputil.HandleBadRequestGin(c,
			fmt.Errorf("unknown action %q", c.Query("action")), h.logger)
	}
}

// PostHandler dispatches POST requests on the signature endpoint by action.
func (h *SignatureHandler) PostHandler(c *gin.Context) {
	user, ok := authHTTP.GetUser(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.SignActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if req.Action == "" {
		httputil.HandleBadRequestGin(c, fmt.Errorf("missing action parameter"), h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	switch req.Action {
	case dto.ActionSign:
		h.sign(c, user.ID, &req)
	case dto.ActionSignMock:
		h.signMock(c, user.ID, req.PrescriptionID)
	default:
		httputil.HandleBadRequestGin(c, fmt.Errorf("unknown action %q", req.Action), h.logger)
	}
}

// checkCertificate asks the provider whether the acting user holds a digital
// certificate. An unconfigured provider is reported as 503 with mockMode so
// the caller can offer the simulated flow instead.
func (h *SignatureHandler) checkCertificate(c *gin.Context, taxID string) {
	output, err := h.useCase.CheckCertificate(c.Request.Context(), taxID)
	if err != nil {
		if apperrors.Is(err, signatureDomain.ErrProviderNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":    "Provedor de assinatura digital não configurado",
				"mockMode": true,
			})
			return
		}
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.CheckCertificateResponse{
		HasCertificate: output.HasCertificate,
		Certificates:   dto.MapCertificateSlots(output.Certificates),
		Message:        output.Message,
	})
}

func (h *SignatureHandler) authorize(c *gin.Context, userID uuid.UUID) {
	documentID, err := uuid.Parse(c.Query("prescriptionId"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid prescriptionId format: must be a valid UUID"),
			h.logger)
		return
	}

	output, err := h.useCase.StartAuthorization(c.Request.Context(), userID, documentID)
	if err != nil {
		h.handleFlowError(c, err)
		return
	}

	if output.Mock {
		c.JSON(http.StatusOK, dto.MapMockSignOutput(output.MockResult))
		return
	}

	c.JSON(http.StatusOK, dto.AuthorizeResponse{
		AuthorizationURL: output.AuthorizationURL,
		Message:          "Redirecione o usuário para a URL de autorização",
	})
}

func (h *SignatureHandler) resume(c *gin.Context, userID uuid.UUID) {
	documentID, err := uuid.Parse(c.Query("prescriptionId"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid prescriptionId format: must be a valid UUID"),
			h.logger)
		return
	}

	output, err := h.useCase.Resume(c.Request.Context(), &signatureUseCase.ResumeInput{
		UserID:        userID,
		DocumentID:    documentID,
		Code:          c.Query("code"),
		State:         c.Query("state"),
		CallbackError: c.Query("error"),
	})
	if err != nil {
		h.handleFlowError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ResumeResponse{
		State:  string(output.State),
		Reason: output.Reason,
	})
}

func (h *SignatureHandler) sign(c *gin.Context, userID uuid.UUID, req *dto.SignActionRequest) {
	documentID, err := uuid.Parse(req.PrescriptionID)
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid prescriptionId format: must be a valid UUID"),
			h.logger)
		return
	}

	content, err := base64.StdEncoding.DecodeString(req.PdfBase64)
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid pdfBase64: must be valid base64-encoded data"),
			h.logger)
		return
	}

	output, err := h.useCase.CompleteSigning(c.Request.Context(), &signatureUseCase.CompleteSigningInput{
		UserID:            userID,
		DocumentID:        documentID,
		AuthorizationCode: req.AuthorizationCode,
		Content:           content,
	})
	if err != nil {
		h.handleFlowError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SignResponse{
		Success:       true,
		SignedPdf:     base64.StdEncoding.EncodeToString(output.SignedArtifact),
		SignatureHash: output.SignatureDigest,
		PdfHash:       output.ContentDigest,
		Certificate: dto.CertificateResponse{
			Alias:    output.CertificateAlias,
			Provider: output.CertificateIssuer,
			CPF:      output.AuthorizedIdentity,
		},
		Validation: dto.ValidationResponse{
			QRCodeURL: output.ValidationURL,
			Token:     output.ValidationToken,
		},
	})
}

func (h *SignatureHandler) signMock(c *gin.Context, userID uuid.UUID, prescriptionID string) {
	documentID, err := uuid.Parse(prescriptionID)
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid prescriptionId format: must be a valid UUID"),
			h.logger)
		return
	}

	output, err := h.useCase.MockSign(c.Request.Context(), userID, documentID)
	if err != nil {
		h.handleFlowError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MapMockSignOutput(output))
}

// handleFlowError maps flow errors to the documented status codes:
//   - trust rejection → 400 with the INVALID_CERTIFICATE code
//   - no pending session at callback time → 400, the user restarts the flow
//   - provider failure → 500 with the provider message relayed
//
// Everything else falls through to the shared error mapping.
func (h *SignatureHandler) handleFlowError(c *gin.Context, err error) {
	switch {
	case apperrors.Is(err, signatureDomain.ErrCertificateNotTrusted):
		h.logger.Warn("certificate trust rejection", slog.Any("error", err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  InvalidCertificateCode,
		})

	case apperrors.Is(err, signatureDomain.ErrSessionNotFound):
		h.logger.Warn("no pending signature session", slog.Any("error", err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Sessão de assinatura não encontrada, reinicie o processo",
		})

	case apperrors.Is(err, signatureDomain.ErrProvider):
		h.logger.Error("signature provider failure", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

	default:
		httputil.HandleErrorGin(c, err, h.logger)
	}
}
