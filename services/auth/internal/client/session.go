package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/adatechschool/MBB/pkg/httpclient"
)

// HTTPDoer is the interface for executing HTTP requests.
// Both httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// SessionClient calls the session service to create and delete sessions.
type SessionClient struct {
	httpClient HTTPDoer
	baseURL    string
}

// NewSessionClient creates a session service client.
func NewSessionClient(httpClient HTTPDoer, baseURL string) *SessionClient {
	return &SessionClient{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

type createSessionResponse struct {
	Data struct {
		SessionID string `json:"session_id"`
	} `json:"data"`
}

// Create registers a new session for the given refresh token. The token
// travels as a cookie, the same way a browser would present it, and the
// session service derives the owner and expiry from the token's claims. The
// session service is the source of truth for live sessions; a failure here
// must abort the login.
func (c *SessionClient) Create(ctx context.Context, refreshToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/sessions/add", http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create session request: %w", err)
	}
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: refreshToken})

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("call session service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", httpclient.ParseResponseError(resp, "session")
	}

	var created createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode create session response: %w", err)
	}

	return created.Data.SessionID, nil
}

// DeleteByHash removes the session matching the given refresh token hash.
// Used on logout so the refresh token can no longer be exchanged.
func (c *SessionClient) DeleteByHash(ctx context.Context, tokenHash string) error {
	endpoint := c.baseURL + "/api/v1/sessions?token_hash=" + url.QueryEscape(tokenHash)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("create delete session request: %w", err)
	}

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("call session service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return httpclient.ParseResponseError(resp, "session")
	}

	return nil
}
