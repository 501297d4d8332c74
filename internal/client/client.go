// Package client provides the consumer-side half of the tracker: a REST
// store speaking to the API server, a local file-backed store, and the
// persisted selector choosing between them.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/steadylab/caffeine-tracker/internal/intake"
)

const defaultBaseURL = "http://localhost:3001"

// Client implements the log store contract over the REST API. The scope
// argument of the store contract is ignored on the wire: the server derives
// the scope from the bearer token when auth is enabled.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      string
}

var _ intake.Store = (*Client)(nil)

func (c *Client) baseURL() string {
	if c.BaseURL == "" {
		return defaultBaseURL
	}
	return c.BaseURL
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return &http.Client{Timeout: 12 * time.Second}
	}
	return c.HTTPClient
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return c.httpClient().Do(req)
}

// List fetches one date's entries from GET /api/logs.
func (c *Client) List(ctx context.Context, _ string, date string) ([]intake.LogEntry, error) {
	endpoint := fmt.Sprintf("%s/api/logs?date=%s", c.baseURL(), url.QueryEscape(date))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("client: create list request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("client: execute list request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("client: list logs failed with status %d", resp.StatusCode)
	}

	var entries []intake.LogEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("client: decode list response: %w", err)
	}
	return entries, nil
}

type createPayload struct {
	Name          string   `json:"name"`
	Size          int      `json:"size"`
	Caffeine      int      `json:"caffeine"`
	CaffeinePerMl *float64 `json:"caffeinePerMl,omitempty"`
	Icon          *string  `json:"icon,omitempty"`
	IsPreset      bool     `json:"isPreset"`
	Date          string   `json:"date,omitempty"`
}

// Create posts a draft to POST /api/logs and returns the stored record.
func (c *Client) Create(ctx context.Context, _ string, draft intake.Draft) (intake.LogEntry, error) {
	body, err := json.Marshal(createPayload{
		Name:          draft.Name,
		Size:          draft.Size,
		Caffeine:      draft.Caffeine,
		CaffeinePerMl: draft.CaffeinePerMl,
		Icon:          draft.Icon,
		IsPreset:      draft.IsPreset,
		Date:          draft.Date,
	})
	if err != nil {
		return intake.LogEntry{}, fmt.Errorf("client: encode create request: %w", err)
	}

	endpoint := c.baseURL() + "/api/logs"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return intake.LogEntry{}, fmt.Errorf("client: create create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return intake.LogEntry{}, fmt.Errorf("client: execute create request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		return intake.LogEntry{}, fmt.Errorf("client: create log failed with status %d: %s", resp.StatusCode, raw)
	}

	var entry intake.LogEntry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return intake.LogEntry{}, fmt.Errorf("client: decode create response: %w", err)
	}
	return entry, nil
}

// Delete removes an entry via DELETE /api/logs/:id. The server treats
// unknown ids as success, so this is idempotent end to end.
func (c *Client) Delete(ctx context.Context, _ string, id string) error {
	endpoint := fmt.Sprintf("%s/api/logs/%s", c.baseURL(), url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("client: create delete request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("client: execute delete request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("client: delete log failed with status %d", resp.StatusCode)
	}
	return nil
}
