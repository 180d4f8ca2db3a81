package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Provider kinds.
const (
	KindOpenAI    = "openai"
	KindAnthropic = "anthropic"
)

// Config configures a Client.
type Config struct {
	// Name identifies the generator in logs and errors.
	Name string
	// Kind is "openai" or "anthropic".
	Kind    string
	BaseURL string
	APIKey  string
	Model   string
	// Temperature defaults to 0.2.
	Temperature *float64
	MaxTokens   int
	Timeout     time.Duration

	MaxIdleConns    int
	IdleConnTimeout time.Duration
}

// Defaults.
const (
	DefaultTimeout   = 60 * time.Second
	DefaultMaxTokens = 4096
	AnthropicVersion = "2023-06-01"
)

const systemPrompt = "You write marketing decision packs as strict JSON. Never add commentary outside the JSON object."

// Stats counts requests made by a Client.
type Stats struct {
	TotalRequests       int64
	FailedRequests      int64
	ConsecutiveFailures int
	LastError           error
	LastSuccess         time.Time
}

// Client drafts decision packs over HTTP.
type Client struct {
	config Config
	client *http.Client
	logger *slog.Logger

	mu    sync.Mutex
	stats Stats
}

// New validates cfg and creates a client with a pooled transport.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Kind == "" {
		cfg.Kind = KindOpenAI
	}
	if cfg.Kind != KindOpenAI && cfg.Kind != KindAnthropic {
		return nil, &ConfigError{Field: "kind", Message: fmt.Sprintf("unsupported kind %q", cfg.Kind)}
	}
	if cfg.BaseURL == "" {
		return nil, &ConfigError{Field: "base_url", Message: "must not be empty"}
	}
	if cfg.Model == "" {
		return nil, &ConfigError{Field: "model", Message: "must not be empty"}
	}
	if cfg.Name == "" {
		cfg.Name = cfg.Kind
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 10
	}
	if cfg.IdleConnTimeout <= 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConns,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}
	return &Client{
		config: cfg,
		client: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

// Name returns the configured name.
func (c *Client) Name() string {
	return c.config.Name
}

// Stats returns a snapshot of request counters.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Generate sends prompt as a single user message and returns the reply text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var (
		text string
		err  error
	)
	switch c.config.Kind {
	case KindAnthropic:
		text, err = c.anthropic(ctx, prompt)
	default:
		text, err = c.openAI(ctx, prompt)
	}
	c.record(err)
	return text, err
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *Client) record(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.TotalRequests++
	if err == nil {
		c.stats.ConsecutiveFailures = 0
		c.stats.LastError = nil
		c.stats.LastSuccess = time.Now()
		return
	}
	c.stats.FailedRequests++
	c.stats.ConsecutiveFailures++
	c.stats.LastError = err
	if c.stats.ConsecutiveFailures >= 3 {
		c.logger.Warn("generator failing repeatedly",
			"generator", c.config.Name,
			"consecutive_failures", c.stats.ConsecutiveFailures,
			"error", err)
	}
}

func (c *Client) temperature() float64 {
	if c.config.Temperature != nil {
		return *c.config.Temperature
	}
	return 0.2
}

// doJSON posts reqBody to path and decodes a 2xx response into respBody.
func (c *Client) doJSON(ctx context.Context, path string, headers map[string]string, reqBody, respBody any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	c.logger.Debug("sending generation request",
		"generator", c.config.Name,
		"url", req.URL.String(),
		"prompt_bytes", len(body))

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return &TimeoutError{Provider: c.config.Name, Timeout: c.config.Timeout, Cause: ctx.Err()}
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return &TimeoutError{Provider: c.config.Name, Timeout: c.config.Timeout}
		}
		return fmt.Errorf("generator %q request failed: %w", c.config.Name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ParseError{Provider: c.config.Name, Cause: fmt.Errorf("failed to read response: %w", err)}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &AuthError{Provider: c.config.Name, Message: string(raw)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			Provider:   c.config.Name,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    string(raw),
		}
	default:
		return &APIError{Provider: c.config.Name, StatusCode: resp.StatusCode, Message: string(raw)}
	}

	if err := json.Unmarshal(raw, respBody); err != nil {
		return &ParseError{
			Provider:    c.config.Name,
			RawResponse: string(raw),
			Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
		}
	}
	return nil
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 0
}
