package generator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"ustudiopd/eventlive/internal/testfixtures"
	"ustudiopd/eventlive/pkg/decision"
)

const packJSON = `{"version":"dp-1.0","summary":"Visit the hot leads.","cards":[{"id":"C1","title":"Visit","recommendation":"Book visits.","priority":"high","evidenceIds":["E1","E2"]}],"actionBoard":{"today":[{"action":"Call P0 leads","targetCount":3}],"thisWeek":[],"thisMonth":[]}}`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newClient(t *testing.T, kind, url string) *Client {
	t.Helper()
	c, err := New(Config{Kind: kind, BaseURL: url + "/", APIKey: "sk-test", Model: "test-model", Timeout: 2 * time.Second}, quietLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGenerateOpenAI(t *testing.T) {
	ms := testfixtures.NewModelServer()
	defer ms.Close()
	ms.Enqueue("/v1/chat/completions", testfixtures.ModelResponse{Body: testfixtures.ChatCompletion(packJSON, "test-model")})

	c := newClient(t, KindOpenAI, ms.URL())
	got, err := c.Generate(context.Background(), "write the pack")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != packJSON {
		t.Errorf("Generate() = %q", got)
	}

	reqs := ms.Requests()
	if len(reqs) != 1 {
		t.Fatalf("requests = %d, want 1", len(reqs))
	}
	if auth := reqs[0].Headers.Get("Authorization"); auth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", auth)
	}
	var body chatRequest
	if err := json.Unmarshal(reqs[0].Body, &body); err != nil {
		t.Fatal(err)
	}
	if body.Model != "test-model" || len(body.Messages) != 2 || body.Messages[1].Content != "write the pack" {
		t.Errorf("request body = %+v", body)
	}
	if body.ResponseFormat == nil || body.ResponseFormat.Type != "json_object" {
		t.Errorf("response_format = %+v", body.ResponseFormat)
	}
}

func TestGenerateAnthropic(t *testing.T) {
	ms := testfixtures.NewModelServer()
	defer ms.Close()
	ms.Enqueue("/v1/messages", testfixtures.ModelResponse{Body: testfixtures.AnthropicMessage(packJSON, "test-model")})

	c := newClient(t, KindAnthropic, ms.URL())
	got, err := c.Generate(context.Background(), "write the pack")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != packJSON {
		t.Errorf("Generate() = %q", got)
	}

	h := ms.Requests()[0].Headers
	if h.Get("x-api-key") != "sk-test" || h.Get("anthropic-version") != AnthropicVersion {
		t.Errorf("headers = %v", h)
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name      string
		resp      testfixtures.ModelResponse
		check     func(t *testing.T, err error)
		retryable bool
	}{
		{
			name: "unauthorized",
			resp: testfixtures.ModelResponse{StatusCode: http.StatusUnauthorized, Body: "bad key"},
			check: func(t *testing.T, err error) {
				var ae *AuthError
				if !errors.As(err, &ae) {
					t.Errorf("error = %T, want *AuthError", err)
				}
			},
		},
		{
			name: "rate limited",
			resp: testfixtures.ModelResponse{StatusCode: http.StatusTooManyRequests, Body: "slow down", Headers: map[string]string{"Retry-After": "7"}},
			check: func(t *testing.T, err error) {
				var rl *RateLimitError
				if !errors.As(err, &rl) {
					t.Fatalf("error = %T, want *RateLimitError", err)
				}
				if rl.RetryAfter != 7*time.Second {
					t.Errorf("RetryAfter = %v, want 7s", rl.RetryAfter)
				}
			},
			retryable: true,
		},
		{
			name: "server error",
			resp: testfixtures.ModelResponse{StatusCode: http.StatusBadGateway, Body: "upstream down"},
			check: func(t *testing.T, err error) {
				var api *APIError
				if !errors.As(err, &api) || api.StatusCode != http.StatusBadGateway {
					t.Errorf("error = %v, want *APIError 502", err)
				}
			},
			retryable: true,
		},
		{
			name: "bad request",
			resp: testfixtures.ModelResponse{StatusCode: http.StatusBadRequest, Body: "max_tokens too large"},
			check: func(t *testing.T, err error) {
				if !strings.Contains(err.Error(), "max_tokens too large") {
					t.Errorf("error = %v", err)
				}
			},
		},
		{
			name: "malformed body",
			resp: testfixtures.ModelResponse{Body: "<html>gateway</html>"},
			check: func(t *testing.T, err error) {
				var pe *ParseError
				if !errors.As(err, &pe) || pe.RawResponse != "<html>gateway</html>" {
					t.Errorf("error = %v, want *ParseError with raw body", err)
				}
			},
			retryable: true,
		},
		{
			name: "no choices",
			resp: testfixtures.ModelResponse{Body: map[string]any{"id": "x", "choices": []any{}}},
			check: func(t *testing.T, err error) {
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Errorf("error = %T, want *ParseError", err)
				}
			},
			retryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := testfixtures.NewModelServer()
			defer ms.Close()
			ms.Enqueue("/v1/chat/completions", tt.resp)

			_, err := newClient(t, KindOpenAI, ms.URL()).Generate(context.Background(), "p")
			if err == nil {
				t.Fatal("Generate() error = nil")
			}
			tt.check(t, err)

			var r decision.Retryable
			if !errors.As(err, &r) {
				t.Fatalf("error %T does not report retryability", err)
			}
			if r.Retryable() != tt.retryable {
				t.Errorf("Retryable() = %v, want %v", r.Retryable(), tt.retryable)
			}
		})
	}
}

func TestGenerateTimeout(t *testing.T) {
	ms := testfixtures.NewModelServer()
	defer ms.Close()
	ms.Enqueue("/v1/chat/completions", testfixtures.ModelResponse{Delay: time.Second, Body: testfixtures.ChatCompletion(packJSON, "m")})

	c, err := New(Config{BaseURL: ms.URL(), Model: "m", Timeout: 50 * time.Millisecond}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Generate(context.Background(), "p")
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want *TimeoutError", err)
	}
	if !te.Retryable() {
		t.Error("client timeout should be retryable")
	}
}

func TestGenerateCallerCancelled(t *testing.T) {
	ms := testfixtures.NewModelServer()
	defer ms.Close()
	ms.Enqueue("/v1/chat/completions", testfixtures.ModelResponse{Delay: time.Second, Body: testfixtures.ChatCompletion(packJSON, "m")})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := newClient(t, KindOpenAI, ms.URL()).Generate(ctx, "p")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want context.DeadlineExceeded in chain", err)
	}
	if decision.ShouldRetry(err, 1, 3) {
		t.Error("ShouldRetry() = true after the caller's deadline passed")
	}
}

func TestStats(t *testing.T) {
	ms := testfixtures.NewModelServer()
	defer ms.Close()
	ms.Enqueue("/v1/chat/completions",
		testfixtures.ModelResponse{StatusCode: http.StatusInternalServerError},
		testfixtures.ModelResponse{Body: testfixtures.ChatCompletion(packJSON, "m")},
	)

	c := newClient(t, KindOpenAI, ms.URL())
	_, _ = c.Generate(context.Background(), "p")
	if s := c.Stats(); s.FailedRequests != 1 || s.ConsecutiveFailures != 1 {
		t.Errorf("after failure: %+v", s)
	}
	if _, err := c.Generate(context.Background(), "p"); err != nil {
		t.Fatal(err)
	}
	s := c.Stats()
	if s.TotalRequests != 2 || s.ConsecutiveFailures != 0 || s.LastError != nil {
		t.Errorf("after success: %+v", s)
	}
}

func TestNewConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"kind", Config{Kind: "cohere", BaseURL: "http://x", Model: "m"}, "kind"},
		{"base url", Config{Model: "m"}, "base_url"},
		{"model", Config{BaseURL: "http://x"}, "model"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, nil)
			var ce *ConfigError
			if !errors.As(err, &ce) || ce.Field != tt.field {
				t.Errorf("New() error = %v, want ConfigError on %s", err, tt.field)
			}
		})
	}
}

func TestGenerateWithRetryOverHTTP(t *testing.T) {
	ms := testfixtures.NewModelServer()
	defer ms.Close()
	invalid := strings.Replace(packJSON, `"priority":"high"`, `"priority":"urgent"`, 1)
	ms.Enqueue("/v1/chat/completions",
		testfixtures.ModelResponse{StatusCode: http.StatusServiceUnavailable, Body: "overloaded"},
		testfixtures.ModelResponse{Body: testfixtures.ChatCompletion(invalid, "m")},
		testfixtures.ModelResponse{Body: testfixtures.ChatCompletion(packJSON, "m")},
	)

	c := newClient(t, KindOpenAI, ms.URL())
	res, err := decision.GenerateWithRetry(context.Background(), c, "BASE", decision.RetryConfig{
		MaxAttempts: 3,
		Sleep:       func(context.Context, time.Duration) error { return nil },
		Logger:      quietLogger(),
	})
	if err != nil {
		t.Fatalf("GenerateWithRetry() error = %v", err)
	}
	if len(res.Attempts) != 3 {
		t.Errorf("attempts = %d, want 3", len(res.Attempts))
	}

	var last chatRequest
	reqs := ms.Requests()
	if err := json.Unmarshal(reqs[2].Body, &last); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(last.Messages[1].Content, `got "urgent"`) {
		t.Errorf("third prompt lacks the correction: %q", last.Messages[1].Content)
	}
}
