package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cyphero-app/cyphero/internal/common"
)

// IdentitySession is what the provider hands back on a successful sign-in.
// The engine never stores it; the frontend holds it for the session.
type IdentitySession struct {
	UserID       string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Identity is the remote authentication provider boundary. It owns account
// identity and session tokens; the vault engine only consumes the opaque
// user id it assigns.
type Identity interface {
	SignUp(ctx context.Context, email, password string) (string, error)
	SignIn(ctx context.Context, email, password string) (*IdentitySession, error)
	SignOut(ctx context.Context, accessToken string) error
}

// HTTPIdentity talks to a GoTrue-style auth endpoint over HTTPS.
type HTTPIdentity struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPIdentity builds an identity client for the given endpoint.
// baseURL is the provider root, e.g. "https://project.example.co".
func NewHTTPIdentity(baseURL, apiKey string) *HTTPIdentity {
	return &HTTPIdentity{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type identityUser struct {
	ID string `json:"id"`
}

type signUpResponse struct {
	ID   string        `json:"id"`
	User *identityUser `json:"user"`
}

type tokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	User         *identityUser `json:"user"`
}

func (p *HTTPIdentity) post(ctx context.Context, path string, body any, authToken string) ([]byte, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", p.apiKey)
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", common.ErrorConnectivity, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: %v", common.ErrorConnectivity, err)
	}
	return data, resp.StatusCode, nil
}

// SignUp registers a new identity and returns the provider-assigned user id.
func (p *HTTPIdentity) SignUp(ctx context.Context, email, password string) (string, error) {
	body := map[string]string{"email": email, "password": password}
	data, status, err := p.post(ctx, "/auth/v1/signup", body, "")
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("signup rejected (status %d)", status)
	}

	var r signUpResponse
	if err := json.Unmarshal(data, &r); err != nil {
		return "", fmt.Errorf("decode signup response: %w", err)
	}
	if r.User != nil && r.User.ID != "" {
		return r.User.ID, nil
	}
	if r.ID != "" {
		return r.ID, nil
	}
	return "", fmt.Errorf("signup response missing user id")
}

// SignIn performs the password grant and returns the session. The access
// token's expiry is read from its claims without verifying the signature;
// the provider is the authority on token validity.
func (p *HTTPIdentity) SignIn(ctx context.Context, email, password string) (*IdentitySession, error) {
	body := map[string]string{"email": email, "password": password}
	data, status, err := p.post(ctx, "/auth/v1/token?grant_type=password", body, "")
	if err != nil {
		return nil, err
	}
	if status == http.StatusBadRequest || status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, common.ErrorWrongPassword
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("sign-in failed (status %d)", status)
	}

	var r tokenResponse
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if r.User == nil || r.User.ID == "" || r.AccessToken == "" {
		return nil, fmt.Errorf("token response incomplete")
	}

	return &IdentitySession{
		UserID:       r.User.ID,
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    tokenExpiry(r.AccessToken),
	}, nil
}

// SignOut revokes the session server-side. Best-effort: a connectivity error
// is returned for the caller to log, the local session is gone either way.
func (p *HTTPIdentity) SignOut(ctx context.Context, accessToken string) error {
	_, status, err := p.post(ctx, "/auth/v1/logout", struct{}{}, accessToken)
	if err != nil {
		return err
	}
	if status >= http.StatusInternalServerError {
		return fmt.Errorf("sign-out failed (status %d)", status)
	}
	return nil
}

// tokenExpiry extracts the exp claim from a JWT access token. Returns the
// zero time when the token has no parseable expiry.
func tokenExpiry(accessToken string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
