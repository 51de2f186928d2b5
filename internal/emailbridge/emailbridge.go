// Package emailbridge sends mail through a provisioned HTTPS relay.
// The device never speaks SMTP itself; the relay holds the mail
// credentials and this client holds only a bridge key.
package emailbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/zclaw/zclaw/internal/httpkit"
)

const (
	sendPath = "/v1/email/send"

	requestTimeout = 15 * time.Second

	// maxResponseBytes bounds how much relay output we keep.
	maxResponseBytes = 4096
)

// Client posts JSON to the relay.
type Client struct {
	baseURL string
	key     string
	http    *http.Client
	log     *slog.Logger
}

// New builds a bridge client. An empty baseURL or key leaves the
// bridge unconfigured; Configured reports that state.
func New(baseURL, key string, log *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		key:     key,
		http:    httpkit.NewClient(httpkit.WithTimeout(requestTimeout)),
		log:     log,
	}
}

// Configured reports whether both the relay URL and key are set.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.key != ""
}

// Send posts one outbound message. The returned string is the relay's
// first response line, suitable for feeding back to the model.
func (c *Client) Send(ctx context.Context, to, subject, body string) (string, error) {
	payload := map[string]string{
		"to":      to,
		"subject": subject,
		"body":    body,
	}
	return c.postJSON(ctx, sendPath, payload)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("email bridge is not configured")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("X-Zclaw-Bridge-Key", c.key)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("post %s: %w", path, err)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	httpkit.DrainAndClose(resp.Body, 1024)
	if err != nil {
		return "", fmt.Errorf("read bridge response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("bridge returned HTTP %d: %s", resp.StatusCode, firstLine(string(body)))
	}

	c.log.Debug("bridge call succeeded", "path", path, "status", resp.StatusCode)
	return firstLine(string(body)), nil
}

// firstLine trims the response to its first non-empty line.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
