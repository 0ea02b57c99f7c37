package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/clinsign/clinsign/internal/auth/domain"
	authHTTP "github.com/clinsign/clinsign/internal/auth/http"
	signatureDomain "github.com/clinsign/clinsign/internal/signature/domain"
	signatureUseCase "github.com/clinsign/clinsign/internal/signature/usecase"
)

// mockSignatureUseCase is a mock implementation of SignatureUseCase for testing.
type mockSignatureUseCase struct {
	mock.Mock
}

func (m *mockSignatureUseCase) CheckCertificate(
	ctx context.Context,
	taxID string,
) (*signatureUseCase.CheckCertificateOutput, error) {
	args := m.Called(ctx, taxID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signatureUseCase.CheckCertificateOutput), args.Error(1)
}

func (m *mockSignatureUseCase) StartAuthorization(
	ctx context.Context,
	userID, documentID uuid.UUID,
) (*signatureUseCase.StartAuthorizationOutput, error) {
	args := m.Called(ctx, userID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signatureUseCase.StartAuthorizationOutput), args.Error(1)
}

func (m *mockSignatureUseCase) CompleteSigning(
	ctx context.Context,
	input *signatureUseCase.CompleteSigningInput,
) (*signatureUseCase.CompleteSigningOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signatureUseCase.CompleteSigningOutput), args.Error(1)
}

func (m *mockSignatureUseCase) MockSign(
	ctx context.Context,
	userID, documentID uuid.UUID,
) (*signatureUseCase.MockSignOutput, error) {
	args := m.Called(ctx, userID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signatureUseCase.MockSignOutput), args.Error(1)
}

func (m *mockSignatureUseCase) Resume(
	ctx context.Context,
	input *signatureUseCase.ResumeInput,
) (*signatureUseCase.ResumeOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signatureUseCase.ResumeOutput), args.Error(1)
}

func (m *mockSignatureUseCase) ValidateDocument(
	ctx context.Context,
	token string,
) (*signatureDomain.SignableDocument, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signatureDomain.SignableDocument), args.Error(1)
}

func (m *mockSignatureUseCase) ListAuditLogs(
	ctx context.Context,
	documentID uuid.UUID,
	offset, limit int,
) ([]*signatureDomain.AuditLogEntry, error) {
	args := m.Called(ctx, documentID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*signatureDomain.AuditLogEntry), args.Error(1)
}

func testUser() *authDomain.User {
	return &authDomain.User{
		ID:       uuid.Must(uuid.NewV7()),
		Name:     "Dra. Ana Souza",
		TaxID:    "12345678900",
		IsActive: true,
	}
}

// injectUser places the user in the request context, standing in for the
// authentication middleware.
func injectUser(user *authDomain.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := authHTTP.WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func newSignatureRouter(useCase *mockSignatureUseCase, user *authDomain.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewSignatureHandler(useCase, logger)

	router := gin.New()
	group := router.Group("/v1/signature")
	if user != nil {
		group.Use(injectUser(user))
	}
	group.GET("", handler.GetHandler)
	group.POST("", handler.PostHandler)

	return router
}

func TestSignatureHandler_CheckCertificate(t *testing.T) {
	user := testUser()

	t.Run("Success_HasCertificate", func(t *testing.T) {
		useCase := &mockSignatureUseCase{}
		useCase.On("CheckCertificate", mock.Anything, user.TaxID).
			Return(&signatureUseCase.CheckCertificateOutput{
				HasCertificate: true,
				Certificates: []signatureDomain.CertificateSlot{
					{Alias: "e-CPF A3", Issuer: "AC SERASA RFB v5"},
				},
			}, nil)

		router := newSignatureRouter(useCase, user)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/signature?action=check-certificate", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, true, body["hasCertificate"])
	})

	t.Run("Success_NoCertificateForTaxID", func(t *testing.T) {
		useCase := &mockSignatureUseCase{}
		useCase.On("CheckCertificate", mock.Anything, user.TaxID).
			Return(&signatureUseCase.CheckCertificateOutput{
				HasCertificate: false,
				Message:        "Nenhum certificado digital encontrado para este CPF",
			}, nil)

		router := newSignatureRouter(useCase, user)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/signature?action=check-certificate", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Nenhum certificado digital encontrado para este CPF")
	})

	t.Run("Error_ProviderUnconfiguredReturnsMockMode", func(t *testing.T) {
		useCase := &mockSignatureUseCase{}
		useCase.On("CheckCertificate", mock.Anything, user.TaxID).
			Return(nil, signatureDomain.ErrProviderNotConfigured)

		router := newSignatureRouter(useCase, user)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/signature?action=check-certificate", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, true, body["mockMode"])
	})

	t.Run("Error_NoAuthenticatedUser", func(t *testing.T) {
		useCase := &mockSignatureUseCase{}

		router := newSignatureRouter(useCase, nil)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/signature?action=check-certificate", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestSignatureHandler_Authorize(t *testing.T) {
	user := testUser()

	t.Run("Success_ReturnsAuthorizationURL", func(t *testing.T) {
		useCase := &mockSignatureUseCase{}
		documentID := uuid.Must(uuid.NewV7())
		useCase.On("StartAuthorization", mock.Anything, user.ID, documentID).
			Return(&signatureUseCase.StartAuthorizationOutput{
				AuthorizationURL: "https://ca.example.test/v1/oauth/authorize?code_challenge=abc",
			}, nil)

		router := newSignatureRouter(useCase, user)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet,
			"/v1/signature?action=authorize&prescriptionId="+documentID.String(), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "authorizationUrl")
		assert.Contains(t, w.Body.String(), "code_challenge=abc")
	})

	t.Run("Success_MockFallback", func(t *testing.T) {
		useCase := &mockSignatureUseCase{}
		documentID := uuid.Must(uuid.NewV7())
		useCase.On("StartAuthorization", mock.Anything, user.ID, documentID).
			Return(&signatureUseCase.StartAuthorizationOutput{
				Mock: true,
				MockResult: &signatureUseCase.MockSignOutput{
					ContentDigest:     "pdf-digest",
					SignatureDigest:   "signature-digest",
					CertificateIssuer: signatureDomain.MockCertificateIssuer,
					CertificateSerial: "0011223344556677",
					SignedAt:          time.Now().UTC(),
					ValidationToken:   "validation-token",
					ValidationURL:     "https://app.clinsign.test/v1/validation/validation-token",
				},
			}, nil)

		router := newSignatureRouter(useCase, user)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet,
			"/v1/signature?action=authorize&prescriptionId="+documentID.String(), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, true, body["mock"])
		assert.Equal(t, true, body["success"])
	})

	t.Run("Error_InvalidPrescriptionID", func(t *testing.T) {
		useCase := &mockSignatureUseCase{}

		router := newSignatureRouter(useCase, user)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet,
			"/v1/signature?action=authorize&prescriptionId=not-a-uuid", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_DocumentAlreadySigned", func(t *testing.T) {
		useCase := &mockSignatureUseCase{}
		documentID := uuid.Must(uuid.NewV7())
		useCase.On("StartAuthorization", mock.Anything, user.ID, documentID).
			Return(nil, signatureDomain.ErrDocumentAlreadySigned)

		router := newSignatureRouter(useCase, user)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet,
			"/v1/signature?action=authorize&prescriptionId="+documentID.String(), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestSignatureHandler_Resume(t *testing.T) {
	user := testUser()

	t.Run("Success_CallbackErrorYieldsErrorState", func(t *testing.T) {
		useCase := &mockSignatureUseCase{}
		documentID := uuid.Must(uuid.NewV7())
		useCase.On("Resume", mock.Anything, mock.MatchedBy(func(in *signatureUseCase.ResumeInput) bool {
			return in.CallbackError == "access_denied" && in.DocumentID == documentID
		})).Return(&signatureUseCase.ResumeOutput{
			State:  signatureDomain.FlowStateError,
			Reason: "access_denied",
		}, nil)

		router := newSignatureRouter(useCase, user)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet,
			"/v1/signature?action=resume&prescriptionId="+documentID.String()+"&error=access_denied", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"state":"error"`)
		assert.Contains(t, w.Body.String(), "access_denied")
	})

	t.Run("Success_CodeYieldsSigningState", func(t *testing.T) {
		useCase := &mockSignatureUseCase{}
		documentID := uuid.Must(uuid.NewV7())
		useCase.On("Resume", mock.Anything, mock.MatchedBy(func(in *signatureUseCase.ResumeInput) bool {
			return in.Code == "auth-code"
		})).Return(&signatureUseCase.ResumeOutput{State: signatureDomain.FlowStateSigning}, nil)

		router := newSignatureRouter(useCase, user)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet,
			"/v1/signature?action=resume&prescriptionId="+documentID.String()+
				"&code=auth-code&state="+documentID.String(), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"state":"signing"`)
	})
}

func TestSignatureHandler_MissingAction(t *testing.T) {
	user := testUser()

	t.Run("Error_MissingActionOnGet", func(t *testing.T) {
		router := newSignatureRouter(&mockSignatureUseCase{}, user)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/signature", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "missing action")
	})

	t.Run("Error_UnknownActionOnGet", func(t *testing.T) {
		router := newSignatureRouter(&mockSignatureUseCase{}, user)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/signature?action=frobnicate", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Error_MissingActionOnPost", func(t *testing.T) {
		router := newSignatureRouter(&mockSignatureUseCase{}, user)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/signature",
			bytes.NewBufferString(`{"prescriptionId":"abc"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "missing action")
	})
}

func TestSignatureHandler_Sign(t *testing.T) {
	user := testUser()
	documentID := uuid.Must(uuid.NewV7())
	pdfBase64 := base64.StdEncoding.EncodeToString([]byte("%PDF-1.7 original"))

	signBody := func() *bytes.Buffer {
		body, _ := json.Marshal(map[string]string{
			"action":            "sign",
			"authorizationCode": "auth-code",
			"prescriptionId":    documentID.String(),
			"pdfBase64":         pdfBase64,
		})
		return bytes.NewBuffer(body)
	}

	t.Run("Success", func(t *testing.T) {
		useCase := &mockSignatureUseCase{}
		signedAt := time.Now().UTC()
		useCase.On("CompleteSigning", mock.Anything, mock.MatchedBy(
			func(in *signatureUseCase.CompleteSigningInput) bool {
				return in.UserID == user.ID &&
					in.DocumentID == documentID &&
					in.AuthorizationCode == "auth-code" &&
					string(in.Content) == "%PDF-1.7 original"
			},
		)).Return(&signatureUseCase.CompleteSigningOutput{
			SignedArtifact:     []byte("%PDF-1.7 signed"),
			ContentDigest:      "pdf-digest",
			SignatureDigest:    "signature-digest",
			CertificateAlias:   "e-CPF A3",
			CertificateIssuer:  "AC SERASA RFB v5",
			AuthorizedIdentity: "*********00",
			SignedAt:           signedAt,
			ValidationToken:    "validation-token",
			ValidationURL:      "https://app.clinsign.test/v1/validation/validation-token",
		}, nil)

		router := newSignatureRouter(useCase, user)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/signature", signBody())
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "signature-digest", body["signatureHash"])
		assert.Equal(t, "pdf-digest", body["pdfHash"])

		certificate := body["certificate"].(map[string]any)
		assert.Equal(t, "e-CPF A3", certificate["alias"])
		assert.Equal(t, "AC SERASA RFB v5", certificate["provider"])
		assert.Equal(t, "*********00", certificate["cpf"])

		validation := body["validation"].(map[string]any)
		assert.Equal(t, "validation-token", validation["token"])

		signedPdf, err := base64.StdEncoding.DecodeString(body["signedPdf"].(string))
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.7 signed", string(signedPdf))
	})

	t.Run("Error_TrustRejection", func(t *testing.T) {
		useCase := &mockSignatureUseCase{}
		useCase.On("CompleteSigning", mock.Anything, mock.Anything).
			Return(nil, signatureDomain.ErrCertificateNotTrusted)

		router := newSignatureRouter(useCase, user)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/signature", signBody())
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "INVALID_CERTIFICATE", body["code"])
	})

	t.Run("Error_SessionNotFound", func(t *testing.T) {
		useCase := &mockSignatureUseCase{}
		useCase.On("CompleteSigning", mock.Anything, mock.Anything).
			Return(nil, signatureDomain.ErrSessionNotFound)

		router := newSignatureRouter(useCase, user)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/signature", signBody())
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "reinicie")
	})

	t.Run("Error_ProviderFailure", func(t *testing.T) {
		useCase := &mockSignatureUseCase{}
		useCase.On("CompleteSigning", mock.Anything, mock.Anything).
			Return(nil, signatureDomain.ErrProvider)

		router := newSignatureRouter(useCase, user)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/signature", signBody())
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("Error_InvalidPrescriptionID", func(t *testing.T) {
		useCase := &mockSignatureUseCase{}

		body, _ := json.Marshal(map[string]string{
			"action":            "sign",
			"authorizationCode": "auth-code",
			"prescriptionId":    "not-a-uuid",
			"pdfBase64":         pdfBase64,
		})

		router := newSignatureRouter(useCase, user)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/signature", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		useCase.AssertNotCalled(t, "CompleteSigning", mock.Anything, mock.Anything)
	})

	t.Run("Error_InvalidBase64", func(t *testing.T) {
		useCase := &mockSignatureUseCase{}

		body, _ := json.Marshal(map[string]string{
			"action":            "sign",
			"authorizationCode": "auth-code",
			"prescriptionId":    documentID.String(),
			"pdfBase64":         "not base64!!!",
		})

		router := newSignatureRouter(useCase, user)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/signature", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		useCase.AssertNotCalled(t, "CompleteSigning", mock.Anything, mock.Anything)
	})
}

func TestSignatureHandler_SignMock(t *testing.T) {
	user := testUser()
	documentID := uuid.Must(uuid.NewV7())

	t.Run("Success", func(t *testing.T) {
		useCase := &mockSignatureUseCase{}
		useCase.On("MockSign", mock.Anything, user.ID, documentID).
			Return(&signatureUseCase.MockSignOutput{
				ContentDigest:     "pdf-digest",
				SignatureDigest:   "signature-digest",
				CertificateIssuer: signatureDomain.MockCertificateIssuer,
				CertificateSerial: "0011223344556677",
				SignedAt:          time.Now().UTC(),
				ValidationToken:   "validation-token",
				ValidationURL:     "https://app.clinsign.test/v1/validation/validation-token",
			}, nil)

		body, _ := json.Marshal(map[string]string{
			"action":         "sign-mock",
			"prescriptionId": documentID.String(),
		})

		router := newSignatureRouter(useCase, user)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/signature", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, true, response["success"])
		assert.Equal(t, true, response["mock"])

		signature := response["signature"].(map[string]any)
		assert.Equal(t, signatureDomain.MockCertificateIssuer, signature["certificateIssuer"])
	})

	t.Run("Error_DocumentNotFound", func(t *testing.T) {
		useCase := &mockSignatureUseCase{}
		useCase.On("MockSign", mock.Anything, user.ID, documentID).
			Return(nil, signatureDomain.ErrDocumentNotFound)

		body, _ := json.Marshal(map[string]string{
			"action":         "sign-mock",
			"prescriptionId": documentID.String(),
		})

		router := newSignatureRouter(useCase, user)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/signature", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
