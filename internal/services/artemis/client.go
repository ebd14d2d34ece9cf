// Package artemis is the HTTP client for the remote listing catalog's
// validation endpoint. Token acquisition and renewal happen outside this
// service; the client only carries a preconfigured bearer token.
package artemis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"product-checker-backend/internal/services/intake"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type validateRequest struct {
	IDs []string `json:"ids"`
}

type validateResponse struct {
	Error      string   `json:"error"`
	MissingIDs []string `json:"missing_ids"`
}

// ValidateListingIDs posts the distinct listing ids to the catalog. A
// response carrying "error" becomes a ValidationResult; transport failures
// are returned as errors for the caller to surface.
func (c *Client) ValidateListingIDs(ctx context.Context, ids []string) (*intake.ValidationResult, error) {
	payload, err := json.Marshal(validateRequest{IDs: ids})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/listing_id/validate", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Gui", "Verification")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed validateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unexpected validator response: %w", err)
	}
	if parsed.Error == "" {
		return &intake.ValidationResult{}, nil
	}
	return &intake.ValidationResult{
		Message:    parsed.Error,
		MissingIDs: parsed.MissingIDs,
	}, nil
}
