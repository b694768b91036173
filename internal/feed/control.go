package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultControlTimeout bounds each control call.
const DefaultControlTimeout = 10 * time.Second

// ControlClient makes REST calls to the backend control surface. Calls are
// single attempts; retrying is left to the user.
type ControlClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewControlClient creates a client targeting the given base URL
// (e.g. "http://localhost:8000"). A zero timeout uses DefaultControlTimeout.
func NewControlClient(baseURL, token string, timeout time.Duration) *ControlClient {
	if timeout <= 0 {
		timeout = DefaultControlTimeout
	}
	return &ControlClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// Start sends POST /api/mode/{mode}/start.
func (c *ControlClient) Start(ctx context.Context, mode Mode) error {
	return c.post(ctx, "/api/mode/"+string(mode)+"/start", nil)
}

// Stop sends POST /api/mode/{mode}/stop.
func (c *ControlClient) Stop(ctx context.Context, mode Mode) error {
	return c.post(ctx, "/api/mode/"+string(mode)+"/stop", nil)
}

// Reset sends POST /api/reset/{mode} and returns the server's message.
func (c *ControlClient) Reset(ctx context.Context, mode Mode) (string, error) {
	var out ResetResponse
	if err := c.post(ctx, "/api/reset/"+string(mode), &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *ControlClient) post(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("POST %s: %d %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("POST %s: decode response: %w", path, err)
		}
	}
	return nil
}
