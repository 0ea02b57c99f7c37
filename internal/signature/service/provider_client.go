package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	apperrors "github.com/clinsign/clinsign/internal/errors"
	signatureDomain "github.com/clinsign/clinsign/internal/signature/domain"
)

// ProviderConfig holds the credentials and endpoints of the external
// certificate authority.
type ProviderConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// providerClient implements CertificateAuthorityClient over HTTP.
//
// Two underlying clients are used on purpose: discovery, certificate lookup
// and revocation are read-only or idempotent and retry on transient failures;
// code exchange and signing are single-shot because authorization codes are
// consumed on first use and a blind retry could double-submit a signature.
type providerClient struct {
	config  ProviderConfig
	query   *retryablehttp.Client
	oneShot *retryablehttp.Client
}

// NewProviderClient creates a CertificateAuthorityClient for the configured
// provider.
func NewProviderClient(config ProviderConfig) CertificateAuthorityClient {
	query := retryablehttp.NewClient()
	query.RetryMax = 2
	query.RetryWaitMin = 200 * time.Millisecond
	query.RetryWaitMax = 2 * time.Second
	query.HTTPClient.Timeout = 15 * time.Second
	query.Logger = nil

	oneShot := retryablehttp.NewClient()
	oneShot.RetryMax = 0
	oneShot.HTTPClient.Timeout = 60 * time.Second
	oneShot.Logger = nil

	return &providerClient{
		config:  config,
		query:   query,
		oneShot: oneShot,
	}
}

// BuildAuthorizationURL constructs the provider's authorization endpoint URL
// with the PKCE challenge (S256), the requested scope and lifetime, and the
// document id as the state correlation value.
func (p *providerClient) BuildAuthorizationURL(
	challenge, scope string,
	lifetime time.Duration,
	state string,
) string {
	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", p.config.ClientID)
	params.Set("redirect_uri", p.config.RedirectURL)
	params.Set("scope", scope)
	params.Set("code_challenge", challenge)
	params.Set("code_challenge_method", "S256")
	params.Set("lifetime", strconv.Itoa(int(lifetime.Seconds())))
	params.Set("state", state)

	return fmt.Sprintf("%s/v1/oauth/authorize?%s", p.config.BaseURL, params.Encode())
}

// DiscoverCertificates asks the provider which certificates exist for the
// holder's tax id.
func (p *providerClient) DiscoverCertificates(
	ctx context.Context,
	taxID string,
) (*CertificateDiscovery, error) {
	endpoint := fmt.Sprintf("%s/v1/certificates?document=%s", p.config.BaseURL, url.QueryEscape(taxID))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build discovery request")
	}
	req.SetBasicAuth(p.config.ClientID, p.config.ClientSecret)

	var payload struct {
		Enrolled     bool                              `json:"enrolled"`
		Certificates []signatureDomain.CertificateSlot `json:"certificates"`
	}
	if err := p.doJSON(p.query, req, &payload); err != nil {
		return nil, err
	}

	return &CertificateDiscovery{
		Enrolled: payload.Enrolled,
		Slots:    payload.Certificates,
	}, nil
}

// ExchangeCode trades the authorization code plus verifier for an access
// credential. Not retried: authorization codes are single-use.
func (p *providerClient) ExchangeCode(
	ctx context.Context,
	code, verifier string,
) (*signatureDomain.AccessCredential, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("code_verifier", verifier)
	form.Set("client_id", p.config.ClientID)
	form.Set("client_secret", p.config.ClientSecret)
	form.Set("redirect_uri", p.config.RedirectURL)

	endpoint := fmt.Sprintf("%s/v1/oauth/token", p.config.BaseURL)
	req, err := retryablehttp.NewRequestWithContext(
		ctx, http.MethodPost, endpoint, bytes.NewBufferString(form.Encode()),
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build exchange request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var payload struct {
		AccessToken        string `json:"access_token"`
		AuthorizedIdentity string `json:"authorized_identity"`
	}
	if err := p.doJSON(p.oneShot, req, &payload); err != nil {
		return nil, err
	}
	if payload.AccessToken == "" {
		return nil, apperrors.Wrap(signatureDomain.ErrProvider, "exchange returned no access token")
	}

	return &signatureDomain.AccessCredential{
		AccessToken:        payload.AccessToken,
		AuthorizedIdentity: payload.AuthorizedIdentity,
	}, nil
}

// GetCertificateInfo fetches the certificate metadata bound to the access
// credential.
func (p *providerClient) GetCertificateInfo(
	ctx context.Context,
	accessToken string,
) (*signatureDomain.CertificateInfo, error) {
	endpoint := fmt.Sprintf("%s/v1/certificates/me", p.config.BaseURL)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build certificate info request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var payload struct {
		Alias  string `json:"alias"`
		Issuer string `json:"issuer"`
		Serial string `json:"serial"`
	}
	if err := p.doJSON(p.query, req, &payload); err != nil {
		return nil, err
	}

	return &signatureDomain.CertificateInfo{
		Alias:  payload.Alias,
		Issuer: payload.Issuer,
		Serial: payload.Serial,
	}, nil
}

// Sign submits the document bytes for signing. Not retried: a blind retry
// could double-submit the signature.
func (p *providerClient) Sign(
	ctx context.Context,
	accessToken string,
	content []byte,
	documentID uuid.UUID,
	filename string,
) ([]byte, error) {
	body, err := json.Marshal(map[string]string{
		"document_id": documentID.String(),
		"filename":    filename,
		"content":     base64.StdEncoding.EncodeToString(content),
		"format":      signatureDomain.SignatureFormat,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode sign request")
	}

	endpoint := fmt.Sprintf("%s/v1/signatures", p.config.BaseURL)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build sign request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	var payload struct {
		SignedContent string `json:"signed_content"`
	}
	if err := p.doJSON(p.oneShot, req, &payload); err != nil {
		return nil, err
	}

	artifact, err := base64.StdEncoding.DecodeString(payload.SignedContent)
	if err != nil {
		return nil, apperrors.Wrap(signatureDomain.ErrProvider, "signed artifact is not valid base64")
	}

	return artifact, nil
}

// Revoke invalidates the access credential at the provider.
func (p *providerClient) Revoke(ctx context.Context, accessToken string) error {
	form := url.Values{}
	form.Set("token", accessToken)

	endpoint := fmt.Sprintf("%s/v1/oauth/revoke", p.config.BaseURL)
	req, err := retryablehttp.NewRequestWithContext(
		ctx, http.MethodPost, endpoint, bytes.NewBufferString(form.Encode()),
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to build revoke request")
	}
	req.SetBasicAuth(p.config.ClientID, p.config.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.query.Do(req)
	if err != nil {
		return apperrors.Wrap(signatureDomain.ErrProvider, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return apperrors.Wrap(
			signatureDomain.ErrProvider,
			fmt.Sprintf("revoke returned status %d", resp.StatusCode),
		)
	}

	return nil
}

// doJSON executes the request and decodes a JSON response body into out.
// Non-2xx responses become ErrProvider with the provider's message attached.
func (p *providerClient) doJSON(client *retryablehttp.Client, req *retryablehttp.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return apperrors.Wrap(signatureDomain.ErrProvider, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return apperrors.Wrap(signatureDomain.ErrProvider, "failed to read provider response")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var providerError struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		message := fmt.Sprintf("provider returned status %d", resp.StatusCode)
		if json.Unmarshal(body, &providerError) == nil {
			if providerError.Message != "" {
				message = providerError.Message
			} else if providerError.Error != "" {
				message = providerError.Error
			}
		}
		return apperrors.Wrap(signatureDomain.ErrProvider, message)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.Wrap(signatureDomain.ErrProvider, "failed to decode provider response")
	}

	return nil
}
