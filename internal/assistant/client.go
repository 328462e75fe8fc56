package assistant

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

	"secdash/pkg/models"
)

// RunStatus is the provider-reported state of a run.
type RunStatus string

const (
	RunQueued     RunStatus = "queued"
	RunInProgress RunStatus = "in_progress"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
	RunCancelled  RunStatus = "cancelled"
	RunExpired    RunStatus = "expired"
)

// Terminal reports whether the run will make no further progress.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunCompleted, RunFailed, RunCancelled, RunExpired:
		return true
	default:
		return false
	}
}

// ClientConfig configures the summarization API client.
type ClientConfig struct {
	URL     string
	Token   string
	Version string
	Timeout time.Duration
}

// Client is the thread/message/run client for the summarization API.
type Client struct {
	baseURL    string
	token      string
	version    string
	httpClient *http.Client
}

// NewClient creates a summarization API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("assistant URL is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	version := cfg.Version
	if version == "" {
		version = "assistants=v2"
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		token:      cfg.Token,
		version:    version,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// CreateThread opens a new conversation thread.
func (c *Client) CreateThread(ctx context.Context) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/threads", map[string]interface{}{}, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("assistant returned empty thread id")
	}
	return resp.ID, nil
}

// PostMessage appends a user message to a thread.
func (c *Client) PostMessage(ctx context.Context, threadID, text string) error {
	body := map[string]interface{}{"role": "user", "content": text}
	return c.do(ctx, http.MethodPost, "/threads/"+url.PathEscape(threadID)+"/messages", body, nil)
}

// StartRun queues a run on a thread.
func (c *Client) StartRun(ctx context.Context, threadID string) (string, error) {
	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, "/threads/"+url.PathEscape(threadID)+"/runs", map[string]interface{}{}, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("assistant returned empty run id")
	}
	return resp.ID, nil
}

// GetRunStatus reads the current status of a run.
func (c *Client) GetRunStatus(ctx context.Context, threadID, runID string) (RunStatus, error) {
	var resp struct {
		Status string `json:"status"`
	}
	path := "/threads/" + url.PathEscape(threadID) + "/runs/" + url.PathEscape(runID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	return RunStatus(resp.Status), nil
}

// ListMessages fetches all messages in a thread.
func (c *Client) ListMessages(ctx context.Context, threadID string) ([]models.Message, error) {
	var resp struct {
		Data []struct {
			ID        string `json:"id"`
			Role      string `json:"role"`
			CreatedAt int64  `json:"created_at"`
			Content   []struct {
				Text struct {
					Value string `json:"value"`
				} `json:"text"`
			} `json:"content"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/threads/"+url.PathEscape(threadID)+"/messages", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]models.Message, 0, len(resp.Data))
	for _, m := range resp.Data {
		var text strings.Builder
		for _, part := range m.Content {
			text.WriteString(part.Text.Value)
		}
		out = append(out, models.Message{
			ID:        m.ID,
			Role:      models.ParseMessageRole(m.Role),
			Text:      text.String(),
			CreatedAt: time.Unix(m.CreatedAt, 0).UTC(),
		})
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
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
	req.Header.Set("OpenAI-Beta", c.version)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("assistant request failed: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("assistant request failed with status %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode assistant response: %w", err)
	}
	return nil
}
