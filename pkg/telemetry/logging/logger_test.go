package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"ustudiopd/eventlive/pkg/config"
)

func TestNew_JSONRedacted(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "info", Format: "json", RedactPII: true}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.With("component", "test").Info("free text answer",
		"text", "Please call me at 010-1234-5678",
		"samples", 50,
	)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["text"] != "Please call me at ***-****-****" {
		t.Errorf("text = %v", entry["text"])
	}
	if entry["samples"] != float64(50) {
		t.Errorf("samples = %v", entry["samples"])
	}
	if entry["component"] != "test" {
		t.Errorf("component = %v", entry["component"])
	}
}

func TestNew_RedactionDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "info", Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("raw", "text", "010-1234-5678")
	if !strings.Contains(buf.String(), "010-1234-5678") {
		t.Errorf("expected raw value, got %s", buf.String())
	}
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "warn", Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record emitted at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn record missing: %s", out)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := New(config.LoggingConfig{Level: "trace"}, nil); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := New(config.LoggingConfig{Format: "console"}, nil); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestNew_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "info", Format: "json", RedactPII: true}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithCampaignID(WithRunID(context.Background(), "run-1"), "camp-1")
	ctx = WithRequestID(ctx, "req-abc")
	logger.InfoContext(ctx, "stage done")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["run_id"] != "run-1" || entry["campaign_id"] != "camp-1" || entry["request_id"] != "req-abc" {
		t.Errorf("context fields missing: %v", entry)
	}
}

func TestContextGetters(t *testing.T) {
	ctx := context.Background()
	if GetRunID(ctx) != "" || GetCampaignID(ctx) != "" || GetRequestID(ctx) != "" {
		t.Error("empty context returned ids")
	}
	ctx = WithRunID(ctx, "r")
	if GetRunID(ctx) != "r" {
		t.Errorf("GetRunID() = %q", GetRunID(ctx))
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]bool{"debug": true, "INFO": true, "": true, "warning": true, "error": true, "verbose": false}
	for in, ok := range tests {
		_, err := ParseLevel(in)
		if (err == nil) != ok {
			t.Errorf("ParseLevel(%q) error = %v, want ok=%v", in, err, ok)
		}
	}
}
