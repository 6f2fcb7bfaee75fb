package n8n

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/xavierca1/leadscout/internal/entity"
	"github.com/xavierca1/leadscout/internal/infra/http/middleware"
)

type searchRequest struct {
	Industry       string `json:"industry"`
	Country        string `json:"country"`
	ProblemKeyword string `json:"problem_keyword"`
	UserID         string `json:"user_id"`
}

// Client posts search criteria to the n8n workflow webhook.
type Client struct {
	webhookURL string
	http       *http.Client
}

// NewClient uses a client without timeout; the workflow may run for minutes.
func NewClient(webhookURL string) *Client {
	return &Client{
		webhookURL: webhookURL,
		http:       &http.Client{},
	}
}

// Search issues exactly one POST. Any 2xx JSON body is returned verbatim.
func (c *Client) Search(ctx context.Context, criteria entity.SearchCriteria) (json.RawMessage, error) {
	if c.webhookURL == "" {
		return nil, fmt.Errorf("workflow webhook url is not configured")
	}

	jsonBody, err := json.Marshal(searchRequest{
		Industry:       criteria.Industry,
		Country:        criteria.Country,
		ProblemKeyword: criteria.ProblemKeyword,
		UserID:         criteria.UserID,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		middleware.RecordIntegrationError("n8n")
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		middleware.RecordIntegrationError("n8n")
		return nil, fmt.Errorf("request failed, status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if !json.Valid(body) {
		middleware.RecordIntegrationError("n8n")
		return nil, fmt.Errorf("response is not valid JSON")
	}

	return json.RawMessage(body), nil
}
