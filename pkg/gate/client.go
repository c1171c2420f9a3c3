package gate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dohwa-law/portal-gate/internal/domain"
)

// Client is the dashboard-side client for the verification endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type VerifyOutcome struct {
	Granted       bool   `json:"granted"`
	Reason        string `json:"reason,omitempty"`
	OperatorToken string `json:"operator_token,omitempty"`
}

// Verify submits a plaintext secret for a category. A denial is not an error;
// errors mean the attempt itself failed and the user should retry manually.
func (c *Client) Verify(ctx context.Context, category domain.Category, secret string) (*VerifyOutcome, error) {
	body, err := json.Marshal(domain.VerifyRequest{Category: category, Secret: secret})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/verify", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("verify failed: %s (%s)", apiErr.Error, apiErr.Code)
		}
		return nil, fmt.Errorf("verify failed: unexpected status %d", resp.StatusCode)
	}

	var outcome VerifyOutcome
	if err := json.NewDecoder(resp.Body).Decode(&outcome); err != nil {
		return nil, fmt.Errorf("verify response malformed: %w", err)
	}
	return &outcome, nil
}
