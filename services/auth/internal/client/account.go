package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/adatechschool/MBB/pkg/httpclient"
)

// AccountClient calls the account service to provision account profiles.
type AccountClient struct {
	httpClient HTTPDoer
	baseURL    string
}

// NewAccountClient creates an account service client.
func NewAccountClient(httpClient HTTPDoer, baseURL string) *AccountClient {
	return &AccountClient{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

type provisionAccountRequest struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Provision creates the account profile for a newly registered user. The
// endpoint is idempotent: a 200 means the account already existed (typically
// created by the registration event projector), which is not an error.
func (c *AccountClient) Provision(ctx context.Context, userID, username, email string) error {
	body, err := json.Marshal(provisionAccountRequest{
		UserID:   userID,
		Username: username,
		Email:    email,
	})
	if err != nil {
		return fmt.Errorf("marshal provision account request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/accounts", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create provision account request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("call account service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp, "account")
	}

	return nil
}
