package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	signatureDomain "github.com/clinsign/clinsign/internal/signature/domain"
)

func newTestProviderClient(baseURL string) CertificateAuthorityClient {
	return NewProviderClient(ProviderConfig{
		BaseURL:      baseURL,
		ClientID:     "clinsign-client",
		ClientSecret: "clinsign-secret",
		RedirectURL:  "https://app.clinsign.test/assinatura/retorno",
	})
}

func TestProviderClientBuildAuthorizationURL(t *testing.T) {
	client := newTestProviderClient("https://ca.example.test")
	state := uuid.Must(uuid.NewV7()).String()

	rawURL := client.BuildAuthorizationURL("challenge-value", "signature_session", time.Hour, state)

	parsed, err := url.Parse(rawURL)
	require.NoError(t, err)
	assert.Equal(t, "/v1/oauth/authorize", parsed.Path)

	query := parsed.Query()
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "clinsign-client", query.Get("client_id"))
	assert.Equal(t, "challenge-value", query.Get("code_challenge"))
	assert.Equal(t, "S256", query.Get("code_challenge_method"))
	assert.Equal(t, "signature_session", query.Get("scope"))
	assert.Equal(t, "3600", query.Get("lifetime"))
	assert.Equal(t, state, query.Get("state"))
}

func TestProviderClientDiscoverCertificates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/certificates", r.URL.Path)
		assert.Equal(t, "12345678900", r.URL.Query().Get("document"))

		username, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "clinsign-client", username)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"enrolled": true,
			"certificates": []map[string]string{
				{"alias": "e-CPF A3", "issuer": "AC SERASA RFB v5", "serial": "0A1B2C3D"},
			},
		})
	}))
	defer server.Close()

	client := newTestProviderClient(server.URL)
	discovery, err := client.DiscoverCertificates(context.Background(), "12345678900")
	require.NoError(t, err)
	assert.True(t, discovery.Enrolled)
	require.Len(t, discovery.Slots, 1)
	assert.Equal(t, "AC SERASA RFB v5", discovery.Slots[0].Issuer)
}

func TestProviderClientDiscoverCertificatesNotEnrolled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"enrolled": false, "certificates": []any{}})
	}))
	defer server.Close()

	client := newTestProviderClient(server.URL)
	discovery, err := client.DiscoverCertificates(context.Background(), "12345678900")
	require.NoError(t, err)
	assert.False(t, discovery.Enrolled)
	assert.Empty(t, discovery.Slots)
}

func TestProviderClientExchangeCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/oauth/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "auth-code", r.PostForm.Get("code"))
		assert.Equal(t, "the-verifier", r.PostForm.Get("code_verifier"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token":        "opaque-token",
			"authorized_identity": "12345678900",
		})
	}))
	defer server.Close()

	client := newTestProviderClient(server.URL)
	credential, err := client.ExchangeCode(context.Background(), "auth-code", "the-verifier")
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", credential.AccessToken)
	assert.Equal(t, "12345678900", credential.AuthorizedIdentity)
}

func TestProviderClientExchangeCodeNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "server_error"})
	}))
	defer server.Close()

	client := newTestProviderClient(server.URL)
	credential, err := client.ExchangeCode(context.Background(), "auth-code", "the-verifier")
	assert.Nil(t, credential)
	require.ErrorIs(t, err, signatureDomain.ErrProvider)
	assert.Equal(t, int32(1), calls.Load())
}

func TestProviderClientExchangeCodeProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "invalid authorization code"})
	}))
	defer server.Close()

	client := newTestProviderClient(server.URL)
	credential, err := client.ExchangeCode(context.Background(), "expired-code", "the-verifier")
	assert.Nil(t, credential)
	require.ErrorIs(t, err, signatureDomain.ErrProvider)
	assert.Contains(t, err.Error(), "invalid authorization code")
}

func TestProviderClientGetCertificateInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/certificates/me", r.URL.Path)
		assert.Equal(t, "Bearer opaque-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"alias":  "e-CPF A3",
			"issuer": "AC CERTISIGN RFB G5",
			"serial": "1122334455667788",
		})
	}))
	defer server.Close()

	client := newTestProviderClient(server.URL)
	info, err := client.GetCertificateInfo(context.Background(), "opaque-token")
	require.NoError(t, err)
	assert.Equal(t, "AC CERTISIGN RFB G5", info.Issuer)
	assert.Equal(t, "1122334455667788", info.Serial)
}

func TestProviderClientSign(t *testing.T) {
	documentID := uuid.Must(uuid.NewV7())
	signedArtifact := []byte("%PDF-1.7 signed")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/signatures", r.URL.Path)
		assert.Equal(t, "Bearer opaque-token", r.Header.Get("Authorization"))

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, documentID.String(), payload["document_id"])
		assert.Equal(t, "laudo.pdf", payload["filename"])
		assert.Equal(t, signatureDomain.SignatureFormat, payload["format"])

		content, err := base64.StdEncoding.DecodeString(payload["content"])
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.7 original"), content)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"signed_content": base64.StdEncoding.EncodeToString(signedArtifact),
		})
	}))
	defer server.Close()

	client := newTestProviderClient(server.URL)
	artifact, err := client.Sign(
		context.Background(), "opaque-token", []byte("%PDF-1.7 original"), documentID, "laudo.pdf",
	)
	require.NoError(t, err)
	assert.Equal(t, signedArtifact, artifact)
}

func TestProviderClientSignNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestProviderClient(server.URL)
	artifact, err := client.Sign(
		context.Background(), "opaque-token", []byte("content"), uuid.Must(uuid.NewV7()), "laudo.pdf",
	)
	assert.Nil(t, artifact)
	require.ErrorIs(t, err, signatureDomain.ErrProvider)
	assert.Equal(t, int32(1), calls.Load())
}

func TestProviderClientRevoke(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/oauth/revoke", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "opaque-token", r.PostForm.Get("token"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestProviderClient(server.URL)
	require.NoError(t, client.Revoke(context.Background(), "opaque-token"))
}

func TestProviderClientRevokeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestProviderClient(server.URL)
	err := client.Revoke(context.Background(), "opaque-token")
	require.ErrorIs(t, err, signatureDomain.ErrProvider)
}
