package logging

import (
	"log/slog"
	"regexp"
	"strings"

	"ustudiopd/eventlive/pkg/config"
)

// Built-in pattern names.
const (
	PatternAPIKey      = "api_key"
	PatternBearerToken = "bearer_token"
	PatternEmail       = "email"
	PatternPhone       = "phone"
)

type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Redactor masks personal data and credentials in log values.
type Redactor struct {
	patterns []redactPattern
}

// defaultPatterns run in order; credentials first so a key containing digits
// is not half-masked as a phone number.
var defaultPatterns = []struct {
	name, regex, replacement string
}{
	{PatternAPIKey, `sk-[A-Za-z0-9_\-]{6,}`, "sk-***"},
	{PatternBearerToken, `Bearer\s+[A-Za-z0-9\-._~+/]+=*`, "Bearer ***"},
	{PatternEmail, `[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`, "***@***"},
	// Korean mobile/landline (010-1234-5678, 02 123 4567) and international
	// (+82 10 1234 5678, +1 (555) 123-4567) formats.
	{PatternPhone, `(?:\+\d{1,3}[\s.\-]?)?(?:\(\d{2,4}\)|\b\d{2,4})[\s.\-]?\d{3,4}[\s.\-]?\d{4}\b`, "***-****-****"},
}

// sensitiveKeys are attribute keys whose values are masked outright.
var sensitiveKeys = []string{
	"password", "secret", "token", "api_key", "apikey", "authorization",
	"email", "phone", "mobile",
}

// NewRedactor creates a Redactor with the built-in patterns followed by the
// custom ones. Invalid custom patterns are skipped; config validation
// reports them.
func NewRedactor(custom []config.RedactPattern) *Redactor {
	r := &Redactor{}
	for _, p := range defaultPatterns {
		r.patterns = append(r.patterns, redactPattern{
			name:        p.name,
			regex:       regexp.MustCompile(p.regex),
			replacement: p.replacement,
		})
	}
	for _, p := range custom {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		r.patterns = append(r.patterns, redactPattern{name: p.Name, regex: re, replacement: p.Replacement})
	}
	return r
}

// RedactString applies every pattern to s.
func (r *Redactor) RedactString(s string) string {
	if s == "" {
		return s
	}
	for _, p := range r.patterns {
		s = p.regex.ReplaceAllString(s, p.replacement)
	}
	return s
}

// RedactAttr masks the attribute's value. Groups are walked recursively.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		attrs := v.Group()
		out := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			out[i] = r.RedactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	case slog.KindString:
		if isSensitiveKey(a.Key) {
			return slog.String(a.Key, maskValue(v.String()))
		}
		return slog.String(a.Key, r.RedactString(v.String()))
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
		if isSensitiveKey(a.Key) {
			return slog.String(a.Key, "***")
		}
		return slog.Attr{Key: a.Key, Value: v}
	default:
		return slog.Attr{Key: a.Key, Value: v}
	}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

func maskValue(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "***"
	}
	return s[:2] + "***"
}
