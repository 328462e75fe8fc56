package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"secdash/internal/normalize"
	"secdash/pkg/models"
)

// Config configures the monitoring backend client.
type Config struct {
	URL               string
	Token             string
	Timeout           time.Duration
	Headers           map[string]string
	RequestsPerSecond float64
	SearchSize        int
}

// Client talks to the external monitoring backend: alert and vulnerability
// search, agent inventory, FIM operations and agent-assignment lookup.
type Client struct {
	baseURL    string
	token      string
	headers    map[string]string
	searchSize int
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a backend client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("backend URL is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	size := cfg.SearchSize
	if size <= 0 {
		size = 500
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		token:      cfg.Token,
		headers:    cfg.Headers,
		searchSize: size,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// SearchRequest is the search body shared by the alert and vulnerability
// endpoints.
type SearchRequest struct {
	From  int                    `json:"from"`
	Size  int                    `json:"size"`
	Query map[string]interface{} `json:"query,omitempty"`
	Sort  string                 `json:"sort,omitempty"`
}

// searchEnvelope is the paginated search result shape.
type searchEnvelope struct {
	Hits struct {
		Hits []struct {
			ID     string                 `json:"_id"`
			Source map[string]interface{} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchAlerts runs an alert search and returns the raw source documents.
func (c *Client) SearchAlerts(ctx context.Context, req SearchRequest) ([]normalize.Hit, error) {
	if req.Size <= 0 {
		req.Size = c.searchSize
	}
	if req.Sort == "" {
		req.Sort = "-timestamp"
	}
	return c.search(ctx, "/alerts", req)
}

// SearchVulnerabilities runs a vulnerability search.
func (c *Client) SearchVulnerabilities(ctx context.Context, query map[string]interface{}) ([]normalize.Hit, error) {
	return c.search(ctx, "/vulnerabilities", SearchRequest{Size: c.searchSize, Query: query})
}

func (c *Client) search(ctx context.Context, path string, req SearchRequest) ([]normalize.Hit, error) {
	var envelope searchEnvelope
	if err := c.do(ctx, http.MethodPost, path, req, &envelope); err != nil {
		return nil, err
	}
	hits := make([]normalize.Hit, 0, len(envelope.Hits.Hits))
	for _, h := range envelope.Hits.Hits {
		hits = append(hits, normalize.Hit{ID: h.ID, Source: h.Source})
	}
	return hits, nil
}

// Agents returns the agent inventory.
func (c *Client) Agents(ctx context.Context) ([]models.Agent, error) {
	var raw []struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		IP            string `json:"ip"`
		Status        string `json:"status"`
		LastKeepAlive string `json:"last_keep_alive"`
	}
	if err := c.do(ctx, http.MethodGet, "/agents", nil, &raw); err != nil {
		return nil, err
	}
	agents := make([]models.Agent, 0, len(raw))
	for _, a := range raw {
		agent := models.Agent{
			ID:     models.NormalizeAgentID(a.ID),
			Name:   a.Name,
			IP:     a.IP,
			Status: models.ParseAgentStatus(a.Status),
		}
		if t, err := time.Parse(time.RFC3339, a.LastKeepAlive); err == nil {
			agent.LastKeepAlive = t
		}
		agents = append(agents, agent)
	}
	return agents, nil
}

// AssignedAgents looks up the agents assigned to a user.
func (c *Client) AssignedAgents(ctx context.Context, userEmail string) ([]models.AgentAssignment, error) {
	if strings.TrimSpace(userEmail) == "" {
		return nil, fmt.Errorf("user email is empty")
	}
	var raw []struct {
		AgentID   string `json:"agentId"`
		AgentName string `json:"agentName"`
	}
	path := "/assigned-agents?userEmail=" + url.QueryEscape(userEmail)
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	out := make([]models.AgentAssignment, 0, len(raw))
	for _, a := range raw {
		out = append(out, models.AgentAssignment{
			UserEmail: userEmail,
			AgentID:   models.NormalizeAgentID(a.AgentID),
			AgentName: a.AgentName,
		})
	}
	return out, nil
}

// RunFIMScan triggers a file-integrity scan across agents.
func (c *Client) RunFIMScan(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/fim/scan", nil, nil)
}

// FIMResults fetches file-integrity findings for one agent.
func (c *Client) FIMResults(ctx context.Context, agentID string) ([]models.FIMEntry, error) {
	var raw []struct {
		Path      string `json:"path"`
		Event     string `json:"event"`
		Checksum  string `json:"checksum"`
		Timestamp string `json:"timestamp"`
	}
	path := "/fim/" + url.PathEscape(models.NormalizeAgentID(agentID)) + "/results"
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	out := make([]models.FIMEntry, 0, len(raw))
	for _, e := range raw {
		entry := models.FIMEntry{Path: e.Path, Event: e.Event, Checksum: e.Checksum}
		if t, err := time.Parse(time.RFC3339, e.Timestamp); err == nil {
			entry.Timestamp = t
		}
		out = append(out, entry)
	}
	return out, nil
}

// ClearFIMResults clears file-integrity findings for one agent.
func (c *Client) ClearFIMResults(ctx context.Context, agentID string) error {
	path := "/fim/" + url.PathEscape(models.NormalizeAgentID(agentID)) + "/results"
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// LastFIMScanTime returns when the agent was last scanned. The zero time
// means the agent has never been scanned.
func (c *Client) LastFIMScanTime(ctx context.Context, agentID string) (time.Time, error) {
	var raw struct {
		LastScan string `json:"last_scan"`
	}
	path := "/fim/" + url.PathEscape(models.NormalizeAgentID(agentID)) + "/last-scan"
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return time.Time{}, err
	}
	if raw.LastScan == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw.LastScan)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last scan time: %w", err)
	}
	return t, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("backend request failed with status %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode backend response: %w", err)
	}
	return nil
}
