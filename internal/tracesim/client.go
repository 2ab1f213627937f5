package tracesim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrStatus indicates the server answered with an unexpected status.
var ErrStatus = errors.New("unexpected status")

// apiError mirrors the server's error body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Client is a thin JSON client for the game API.
type Client struct {
	base   string
	client *http.Client
}

// NewClient creates a client for base with a per-request timeout.
func NewClient(base string, timeout time.Duration) *Client {
	return &Client{base: base, client: &http.Client{Timeout: timeout}}
}

// do sends a request and decodes a JSON response into out when the status
// is one of want.
func (c *Client) do(ctx context.Context, method, path string, body, out any, want ...int) (int, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", simUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	for _, w := range want {
		if resp.StatusCode != w {
			continue
		}
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return resp.StatusCode, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("%s %s: decode: %w", method, path, err)
		}
		return resp.StatusCode, nil
	}

	var e apiError
	_ = json.NewDecoder(resp.Body).Decode(&e)
	return resp.StatusCode, fmt.Errorf("%w: %s %s: %d %s %s", ErrStatus, method, path, resp.StatusCode, e.Code, e.Message)
}

// Health checks that the service answers.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK)
	return err
}

// Reference fetches the outline to trace.
func (c *Client) Reference(ctx context.Context) (Reference, error) {
	var ref Reference
	_, err := c.do(ctx, http.MethodGet, "/reference", nil, &ref, http.StatusOK)
	return ref, err
}

// Create opens a session as a portrait phone.
func (c *Client) Create(ctx context.Context) (Session, error) {
	var s Session
	body := map[string]any{
		"user_agent":       simUserAgent,
		"platform":         "iPhone",
		"max_touch_points": 5,
		"has_touch_event":  true,
		"width":            390,
		"height":           844,
	}
	_, err := c.do(ctx, http.MethodPost, "/sessions", body, &s, http.StatusCreated)
	return s, err
}

// Start begins an attempt.
func (c *Client) Start(ctx context.Context, id string) (Session, error) {
	var s Session
	_, err := c.do(ctx, http.MethodPost, "/sessions/"+id+"/start", nil, &s, http.StatusOK)
	return s, err
}

// Draw submits one draw event over surface.
func (c *Client) Draw(ctx context.Context, id, phase string, x, y float64, surface Surface) (Session, error) {
	var s Session
	body := map[string]any{
		"phase":   phase,
		"touches": []map[string]float64{{"client_x": x, "client_y": y}},
		"surface": surface,
	}
	_, err := c.do(ctx, http.MethodPost, "/sessions/"+id+"/draw", body, &s, http.StatusOK)
	return s, err
}

// Share queues a share of the scored attempt.
func (c *Client) Share(ctx context.Context, id string) (Share, error) {
	var s Share
	_, err := c.do(ctx, http.MethodPost, "/sessions/"+id+"/share", nil, &s, http.StatusAccepted, http.StatusOK)
	return s, err
}

// ShareStatus reads the share status.
func (c *Client) ShareStatus(ctx context.Context, id string) (Share, error) {
	var s Share
	_, err := c.do(ctx, http.MethodGet, "/sessions/"+id+"/share", nil, &s, http.StatusOK)
	return s, err
}

// End removes a session.
func (c *Client) End(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/sessions/"+id, nil, nil, http.StatusNoContent)
	return err
}
