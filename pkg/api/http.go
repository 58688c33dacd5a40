// ABOUTME: HTTP implementation of the join-code and metadata API
// ABOUTME: POST /code and GET /meta against a base URL
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultTimeout bounds each API round trip
const DefaultTimeout = 10 * time.Second

// maxBody caps how much of a response is read
const maxBody = 1 << 20

// HTTPConfig holds optional HTTP client settings
type HTTPConfig struct {
	Timeout   time.Duration
	Client    *http.Client
	UserAgent string
	Logger    *log.Logger
}

// HTTPClient calls the metadata server
type HTTPClient struct {
	base      *url.URL
	client    *http.Client
	userAgent string
	logger    *log.Logger
}

// NewHTTPClient creates a client rooted at baseURL, e.g. http://host:8080/
func NewHTTPClient(baseURL string, cfg HTTPConfig) (*HTTPClient, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", baseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", baseURL)
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &HTTPClient{
		base:      base,
		client:    client,
		userAgent: cfg.UserAgent,
		logger:    logger.WithPrefix("api"),
	}, nil
}

type codeResponse struct {
	Code string `json:"code"`
}

// CreateCode mints a join code
func (c *HTTPClient) CreateCode(ctx context.Context) (string, error) {
	var resp codeResponse
	if err := c.do(ctx, http.MethodPost, "code", &resp); err != nil {
		return "", fmt.Errorf("failed to create code: %w", err)
	}
	if resp.Code == "" {
		return "", fmt.Errorf("failed to create code: empty code in response")
	}

	c.logger.Info("Minted join code", "code", resp.Code)
	return resp.Code, nil
}

// Meta fetches the server metadata. A relative webSocketUrl is resolved
// against the API base with the scheme switched to ws or wss.
func (c *HTTPClient) Meta(ctx context.Context) (Meta, error) {
	var meta Meta
	if err := c.do(ctx, http.MethodGet, "meta", &meta); err != nil {
		return Meta{}, fmt.Errorf("failed to fetch meta: %w", err)
	}

	ws, err := resolveWebSocketURL(c.base, meta.WebSocketURL)
	if err != nil {
		return Meta{}, err
	}
	meta.WebSocketURL = ws

	c.logger.Debug("Fetched meta", "websocket", meta.WebSocketURL, "altAccounts", meta.AltAccounts)
	return meta, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, out any) error {
	target := c.base.ResolveReference(&url.URL{Path: path})

	req, err := http.NewRequestWithContext(ctx, method, target.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s: HTTP %d", ErrBadStatus, method, target, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func resolveWebSocketURL(base *url.URL, raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("meta has no webSocketUrl")
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid webSocketUrl %q: %w", raw, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}

	ws := base.ResolveReference(ref)
	switch ws.Scheme {
	case "https":
		ws.Scheme = "wss"
	default:
		ws.Scheme = "ws"
	}
	return ws.String(), nil
}
