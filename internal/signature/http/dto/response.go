package dto

import (
	"time"

	signatureDomain "github.com/clinsign/clinsign/internal/signature/domain"
	signatureUseCase "github.com/clinsign/clinsign/internal/signature/usecase"
)

// CertificateSlotResponse describes one certificate available at the provider.
type CertificateSlotResponse struct {
	Alias     string `json:"alias"`
	Issuer    string `json:"issuer"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

// CheckCertificateResponse is the body for the check-certificate action.
type CheckCertificateResponse struct {
	HasCertificate bool                      `json:"hasCertificate"`
	Certificates   []CertificateSlotResponse `json:"certificates,omitempty"`
	Message        string                    `json:"message,omitempty"`
}

// AuthorizeResponse is the body for the authorize action when the provider is
// configured.
type AuthorizeResponse struct {
	AuthorizationURL string `json:"authorizationUrl"`
	Message          string `json:"message"`
}

// CertificateResponse carries the signer certificate details of a signature.
type CertificateResponse struct {
	Alias    string `json:"alias"`
	Provider string `json:"provider"`
	CPF      string `json:"cpf"`
}

// ValidationResponse carries the public validation pointers of a signature.
type ValidationResponse struct {
	QRCodeURL string `json:"qrCodeUrl"`
	Token     string `json:"token"`
}

// SignResponse is the body for a successful sign action.
type SignResponse struct {
	Success       bool                `json:"success"`
	SignedPdf     string              `json:"signedPdf"`
	SignatureHash string              `json:"signatureHash"`
	PdfHash       string              `json:"pdfHash"`
	Certificate   CertificateResponse `json:"certificate"`
	Validation    ValidationResponse  `json:"validation"`
}

// MockSignatureResponse carries the simulated signature details.
type MockSignatureResponse struct {
	SignatureHash     string    `json:"signatureHash"`
	PdfHash           string    `json:"pdfHash"`
	CertificateIssuer string    `json:"certificateIssuer"`
	CertificateSerial string    `json:"certificateSerial"`
	SignedAt          time.Time `json:"signedAt"`
}

// SignMockResponse is the body for a successful sign-mock action, and for the
// authorize action when the provider is unconfigured.
type SignMockResponse struct {
	Success    bool                  `json:"success"`
	Mock       bool                  `json:"mock"`
	Signature  MockSignatureResponse `json:"signature"`
	Validation ValidationResponse    `json:"validation"`
}

// ResumeResponse is the body for the resume action: the observable flow state
// reconstructed from storage plus the callback parameters.
type ResumeResponse struct {
	State  string `json:"state"`
	Reason string `json:"reason,omitempty"`
}

// DocumentValidationResponse is the public validation lookup body. It exposes
// only signature metadata, never the document content.
type DocumentValidationResponse struct {
	Signed            bool       `json:"signed"`
	Filename          string     `json:"filename"`
	SignedAt          *time.Time `json:"signedAt,omitempty"`
	CertificateIssuer string     `json:"certificateIssuer,omitempty"`
	CertificateSerial string     `json:"certificateSerial,omitempty"`
	PdfHash           string     `json:"pdfHash,omitempty"`
	SignatureHash     string     `json:"signatureHash,omitempty"`
}

// AuditLogEntryResponse is one audit trail entry.
type AuditLogEntryResponse struct {
	ID                string         `json:"id"`
	DocumentID        string         `json:"documentId"`
	UserID            string         `json:"userId"`
	Action            string         `json:"action"`
	Success           bool           `json:"success"`
	ErrorMessage      string         `json:"errorMessage,omitempty"`
	CertificateIssuer string         `json:"certificateIssuer,omitempty"`
	CertificateSerial string         `json:"certificateSerial,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
}

// AuditLogListResponse is a paginated audit trail.
type AuditLogListResponse struct {
	AuditLogs []AuditLogEntryResponse `json:"auditLogs"`
	Offset    int                     `json:"offset"`
	Limit     int                     `json:"limit"`
}

// MapCertificateSlots converts domain certificate slots to response form.
func MapCertificateSlots(slots []signatureDomain.CertificateSlot) []CertificateSlotResponse {
	responses := make([]CertificateSlotResponse, 0, len(slots))
	for _, slot := range slots {
		responses = append(responses, CertificateSlotResponse{
			Alias:     slot.Alias,
			Issuer:    slot.Issuer,
			ExpiresAt: slot.ExpiresAt,
		})
	}
	return responses
}

// MapMockSignOutput converts a mock signing outcome to response form.
func MapMockSignOutput(output *signatureUseCase.MockSignOutput) SignMockResponse {
	return SignMockResponse{
		Success: true,
		Mock:    true,
		Signature: MockSignatureResponse{
			SignatureHash:     output.SignatureDigest,
			PdfHash:           output.ContentDigest,
			CertificateIssuer: output.CertificateIssuer,
			CertificateSerial: output.CertificateSerial,
			SignedAt:          output.SignedAt,
		},
		Validation: ValidationResponse{
			QRCodeURL: output.ValidationURL,
			Token:     output.ValidationToken,
		},
	}
}

// MapDocumentToValidationResponse converts a document to the public validation body.
func MapDocumentToValidationResponse(document *signatureDomain.SignableDocument) DocumentValidationResponse {
	return DocumentValidationResponse{
		Signed:            document.Signed,
		Filename:          document.Filename,
		SignedAt:          document.SignedAt,
		CertificateIssuer: document.CertificateIssuer,
		CertificateSerial: document.CertificateSerial,
		PdfHash:           document.ContentDigest,
		SignatureHash:     document.SignatureDigest,
	}
}

// MapAuditLogEntries converts audit entries to response form.
func MapAuditLogEntries(entries []*signatureDomain.AuditLogEntry) []AuditLogEntryResponse {
	responses := make([]AuditLogEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, AuditLogEntryResponse{
			ID:                entry.ID.String(),
			DocumentID:        entry.DocumentID.String(),
			UserID:            entry.UserID.String(),
			Action:            entry.Action,
			Success:           entry.Success,
			ErrorMessage:      entry.ErrorMessage,
			CertificateIssuer: entry.CertificateIssuer,
			CertificateSerial: entry.CertificateSerial,
			Metadata:          entry.Metadata,
			CreatedAt:         entry.CreatedAt,
		})
	}
	return responses
}
