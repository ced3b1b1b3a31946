package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultCallMeBotEndpoint is the CallMeBot text API.
const DefaultCallMeBotEndpoint = "https://api.callmebot.com/text.php"

// CallMeBotRelay delivers alerts through the CallMeBot text API.
type CallMeBotRelay struct {
	httpClient *http.Client
	endpoint   string
}

// NewCallMeBotRelay creates a relay. An empty endpoint uses DefaultCallMeBotEndpoint.
func NewCallMeBotRelay(endpoint string, timeout time.Duration) *CallMeBotRelay {
	if endpoint == "" {
		endpoint = DefaultCallMeBotEndpoint
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &CallMeBotRelay{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Deliver sends text to the CallMeBot user recipient.
func (c *CallMeBotRelay) Deliver(ctx context.Context, recipient, text string) error {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return fmt.Errorf("failed to parse endpoint: %w", err)
	}

	q := u.Query()
	q.Set("user", recipient)
	q.Set("text", text)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call relay: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("relay returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}
