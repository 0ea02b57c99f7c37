package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinsign/clinsign/internal/httputil"
	"github.com/clinsign/clinsign/internal/signature/http/dto"
	signatureUseCase "github.com/clinsign/clinsign/internal/signature/usecase"
)

// AuditLogHandler serves the per-document audit trail for compliance review.
type AuditLogHandler struct {
	useCase signatureUseCase.SignatureUseCase
	logger  *slog.Logger
}

// NewAuditLogHandler creates a new audit log handler with required dependencies.
func NewAuditLogHandler(useCase signatureUseCase.SignatureUseCase, logger *slog.Logger) *AuditLogHandler {
	return &AuditLogHandler{
		useCase: useCase,
		logger:  logger,
	}
}

// ListHandler lists a document's audit entries, newest first.
// GET /v1/signature/audit-logs?prescriptionId=...&offset=0&limit=50
func (h *AuditLogHandler) ListHandler(c *gin.Context) {
	documentID, err := uuid.Parse(c.Query("prescriptionId"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid prescriptionId format: must be a valid UUID"),
			h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	entries, err := h.useCase.ListAuditLogs(c.Request.Context(), documentID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.AuditLogListResponse{
		AuditLogs: dto.MapAuditLogEntries(entries),
		Offset:    offset,
		Limit:     limit,
	})
}
