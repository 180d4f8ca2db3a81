package logging

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	// RunIDKey is the context key for analysis run ids.
	RunIDKey contextKey = "run_id"

	// CampaignIDKey is the context key for campaign ids.
	CampaignIDKey contextKey = "campaign_id"

	// RequestIDKey is the context key for HTTP request ids.
	RequestIDKey contextKey = "request_id"
)

// WithRunID adds an analysis run id to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID retrieves the run id from the context.
func GetRunID(ctx context.Context) string {
	if v, ok := ctx.Value(RunIDKey).(string); ok {
		return v
	}
	return ""
}

// WithCampaignID adds a campaign id to the context.
func WithCampaignID(ctx context.Context, campaignID string) context.Context {
	return context.WithValue(ctx, CampaignIDKey, campaignID)
}

// GetCampaignID retrieves the campaign id from the context.
func GetCampaignID(ctx context.Context) string {
	if v, ok := ctx.Value(CampaignIDKey).(string); ok {
		return v
	}
	return ""
}

// WithRequestID adds an HTTP request id to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request id from the context.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// ContextHandler adds the run, campaign and request ids found in the context.
type ContextHandler struct {
	next slog.Handler
}

// NewContextHandler wraps next.
func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next}
}

// Enabled implements slog.Handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *ContextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if ctx != nil {
		if id := GetRunID(ctx); id != "" {
			rec.AddAttrs(slog.String(string(RunIDKey), id))
		}
		if id := GetCampaignID(ctx); id != "" {
			rec.AddAttrs(slog.String(string(CampaignIDKey), id))
		}
		if id := GetRequestID(ctx); id != "" {
			rec.AddAttrs(slog.String(string(RequestIDKey), id))
		}
	}
	return h.next.Handle(ctx, rec)
}

// WithAttrs implements slog.Handler.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

// WithGroup implements slog.Handler.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}
