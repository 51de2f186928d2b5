package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/zclaw/zclaw/internal/config"
	"github.com/zclaw/zclaw/internal/httpkit"
)

// MaxAPIKeyLen bounds a plausible provider key. Longer values are
// almost certainly paste errors and are rejected at construction.
const MaxAPIKeyLen = 511

// anthropicVersion is the API version header Anthropic requires.
const anthropicVersion = "2023-06-01"

// maxResponseBytes caps how much of a reply we read.
const maxResponseBytes = 1 << 20

// Client performs one HTTP exchange with a backend. It carries no
// retry logic; the agent loop owns backoff and its wall-clock budget.
type Client struct {
	backend Backend
	url     string
	apiKey  string
	http    *http.Client
	log     *slog.Logger
}

// NewClient builds a transport for the given backend. baseURL empty
// means the backend's default endpoint. Ollama needs no key; the other
// backends require one.
func NewClient(backend Backend, baseURL, apiKey string, timeout time.Duration, log *slog.Logger) (*Client, error) {
	if len(apiKey) > MaxAPIKeyLen {
		return nil, fmt.Errorf("api key too long (%d bytes, max %d)", len(apiKey), MaxAPIKeyLen)
	}
	if apiKey == "" && backend != BackendOllama {
		return nil, fmt.Errorf("backend %s requires an api key", backend)
	}

	url := baseURL
	if url == "" {
		url = backend.DefaultEndpoint()
	}

	return &Client{
		backend: backend,
		url:     url,
		apiKey:  apiKey,
		http:    httpkit.NewClient(httpkit.WithTimeout(timeout)),
		log:     log,
	}, nil
}

// Backend returns the backend this client targets.
func (c *Client) Backend() Backend { return c.backend }

// Send posts a serialized request and returns the raw response body.
// Server errors and 429s return an error so the caller can retry;
// other non-2xx statuses return the body, since both wire formats
// carry a parseable top-level error object there.
func (c *Client) Send(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	c.log.Log(ctx, config.LevelTrace, "llm request", "backend", c.backend.String(), "body", string(body))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", c.backend, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		detail := httpkit.ReadErrorBody(resp.Body, 512)
		return nil, fmt.Errorf("%s returned HTTP %d: %s", c.backend, resp.StatusCode, detail)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	httpkit.DrainAndClose(resp.Body, 1024)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.log.Log(ctx, config.LevelTrace, "llm response",
		"backend", c.backend.String(), "status", resp.StatusCode, "body", string(raw))

	return raw, nil
}

// setAuth applies the backend's auth scheme. Anthropic uses x-api-key
// plus a version header; the chat-completions backends use Bearer.
func (c *Client) setAuth(req *http.Request) {
	if c.apiKey == "" {
		return
	}
	if c.backend == BackendAnthropic {
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", anthropicVersion)
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}
