package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clinsign/clinsign/internal/httputil"
	"github.com/clinsign/clinsign/internal/signature/http/dto"
	signatureUseCase "github.com/clinsign/clinsign/internal/signature/usecase"
)

// ValidationHandler serves the public signature validation lookup. The route
// is unauthenticated: anyone holding the validation token (e.g. from the QR
// code printed on the document) may verify the signature metadata.
type ValidationHandler struct {
	useCase signatureUseCase.SignatureUseCase
	logger  *slog.Logger
}

// NewValidationHandler creates a new validation handler with required dependencies.
func NewValidationHandler(useCase signatureUseCase.SignatureUseCase, logger *slog.Logger) *ValidationHandler {
	return &ValidationHandler{
		useCase: useCase,
		logger:  logger,
	}
}

// GetHandler resolves a validation token to the document's signature metadata.
// GET /v1/validation/:token - Public, returns 200 OK or 404 Not Found.
func (h *ValidationHandler) GetHandler(c *gin.Context) {
	document, err := h.useCase.ValidateDocument(c.Request.Context(), c.Param("token"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDocumentToValidationResponse(document))
}
