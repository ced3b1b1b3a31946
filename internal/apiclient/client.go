// Package apiclient talks to the monitor's local control plane.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/andresjosehr/dollarspy/internal/common"
	"github.com/andresjosehr/dollarspy/internal/model"
)

// Client is an HTTP client for the control plane.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// envelope is the shape shared by every control plane response.
type envelope struct {
	State     string          `json:"state"`
	Error     string          `json:"error"`
	Groups    json.RawMessage `json:"groups"`
	Saved     int             `json:"saved"`
	OK        bool            `json:"ok"`
	Added     bool            `json:"added"`
	Removed   bool            `json:"removed"`
	Monitored bool            `json:"monitored"`
}

// New creates a client for baseURL (for example "http://127.0.0.1:3847").
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Status returns the transport connection state.
func (c *Client) Status(ctx context.Context) (string, error) {
	env, err := c.do(ctx, http.MethodGet, "/status", nil)
	if err != nil {
		return "", err
	}
	return env.State, nil
}

// Groups returns every transport group with its monitored flag.
func (c *Client) Groups(ctx context.Context) ([]model.GroupStatus, error) {
	env, err := c.do(ctx, http.MethodGet, "/groups", nil)
	if err != nil {
		return nil, err
	}

	var groups []model.GroupStatus
	if err := decodeGroups(env.Groups, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// Monitored returns the registry contents.
func (c *Client) Monitored(ctx context.Context) ([]model.Group, error) {
	env, err := c.do(ctx, http.MethodGet, "/monitored", nil)
	if err != nil {
		return nil, err
	}

	var groups []model.Group
	if err := decodeGroups(env.Groups, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// SaveMonitored replaces the registry and returns the number of groups stored.
func (c *Client) SaveMonitored(ctx context.Context, groups []model.Group) (int, error) {
	if groups == nil {
		groups = []model.Group{}
	}

	env, err := c.do(ctx, http.MethodPost, "/monitored", map[string]any{"groups": groups})
	if err != nil {
		return 0, err
	}
	return env.Saved, nil
}

// AddMonitored adds one group. It returns false when it was already monitored.
func (c *Client) AddMonitored(ctx context.Context, id, name string) (bool, error) {
	env, err := c.do(ctx, http.MethodPut, "/monitored/"+url.PathEscape(id), map[string]any{"name": name})
	if err != nil {
		return false, err
	}
	return env.Added, nil
}

// RemoveMonitored removes one group. It returns false when it was not monitored.
func (c *Client) RemoveMonitored(ctx context.Context, id string) (bool, error) {
	env, err := c.do(ctx, http.MethodDelete, "/monitored/"+url.PathEscape(id), nil)
	if err != nil {
		return false, err
	}
	return env.Removed, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			return nil, fmt.Errorf("%w at %s", common.ErrMonitorNotRunning, c.baseURL)
		}
		return nil, fmt.Errorf("failed to reach control plane: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if !env.OK {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s", common.ErrControlPlane, msg)
	}

	return &env, nil
}

func decodeGroups(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode groups: %w", err)
	}
	return nil
}
