// Package api wraps the backend's campaign/prospect/agent REST endpoints:
// bulk loads for the initial snapshot and manual refresh, plus the
// fire-and-forget campaign start/stop intents.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"prospect-sync/internal/core"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Code, e.Body)
}

// ProspectFilter narrows ListProspects.
type ProspectFilter struct {
	CampaignID int
	MinScore   int
	Status     core.ProspectState
}

// Client talks to the prospecting backend.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

// New returns a client for the given base URL.
func New(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// ListCampaigns fetches all campaigns.
func (c *Client) ListCampaigns(ctx context.Context) ([]core.Campaign, error) {
	var out []core.Campaign
	if err := c.getJSON(ctx, "/api/campaigns", nil, &out); err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return out, nil
}

// ListProspects fetches prospects matching the filter.
func (c *Client) ListProspects(ctx context.Context, f ProspectFilter) ([]core.Prospect, error) {
	q := url.Values{}
	if f.CampaignID != 0 {
		q.Set("campaign_id", strconv.Itoa(f.CampaignID))
	}
	if f.MinScore != 0 {
		q.Set("min_score", strconv.Itoa(f.MinScore))
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	var out []core.Prospect
	if err := c.getJSON(ctx, "/api/prospects", q, &out); err != nil {
		return nil, fmt.Errorf("list prospects: %w", err)
	}
	return out, nil
}

// GetAgentStatuses fetches the current agent fleet state.
func (c *Client) GetAgentStatuses(ctx context.Context) ([]core.AgentStatus, error) {
	var out []core.AgentStatus
	if err := c.getJSON(ctx, "/api/agents/status", nil, &out); err != nil {
		return nil, fmt.Errorf("get agent statuses: %w", err)
	}
	return out, nil
}

// StartCampaign asks the backend to start a campaign.
func (c *Client) StartCampaign(ctx context.Context, id int) error {
	if err := c.post(ctx, fmt.Sprintf("/api/campaigns/%d/start", id)); err != nil {
		return fmt.Errorf("start campaign %d: %w", id, err)
	}
	return nil
}

// StopCampaign asks the backend to stop a campaign.
func (c *Client) StopCampaign(ctx context.Context, id int) error {
	if err := c.post(ctx, fmt.Sprintf("/api/campaigns/%d/stop", id)); err != nil {
		return fmt.Errorf("stop campaign %d: %w", id, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := readStatusError(resp)
		c.logger.Println("api: GET", path, "failed:", err)
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) post(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := readStatusError(resp)
		c.logger.Println("api: POST", path, "failed:", err)
		return err
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func readStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Code: resp.StatusCode, Body: string(body)}
}
