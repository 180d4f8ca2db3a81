package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	gpErrors "ustudiopd/eventlive/pkg/guideline/errors"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is plain text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is indented JSON output.
	FormatJSON OutputFormat = "json"
	// FormatMarkdown is Markdown output.
	FormatMarkdown OutputFormat = "markdown"
)

// Texter is implemented by results with a custom text rendering.
type Texter interface {
	Text() string
}

// Markdowner is implemented by results that render as Markdown.
type Markdowner interface {
	Markdown() string
}

// Formatter formats command output.
type Formatter interface {
	FormatTo(w io.Writer, data any) error
}

// TextFormatter formats output as plain text.
type TextFormatter struct{}

// FormatTo writes data as text.
func (f *TextFormatter) FormatTo(w io.Writer, data any) error {
	text := ""
	switch v := data.(type) {
	case Texter:
		text = v.Text()
	case string:
		text = v
	default:
		text = fmt.Sprintf("%v", data)
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err := io.WriteString(w, text)
	return err
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes data as JSON.
func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// MarkdownFormatter formats output as Markdown.
type MarkdownFormatter struct{}

// FormatTo writes data as Markdown.
func (f *MarkdownFormatter) FormatTo(w io.Writer, data any) error {
	m, ok := data.(Markdowner)
	if !ok {
		return fmt.Errorf("%T cannot be rendered as markdown", data)
	}
	_, err := io.WriteString(w, m.Markdown())
	return err
}

// ParseFormat parses an output format name. Empty selects text.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown output format %q (valid: text, json, markdown)", s)
	}
}

// NewFormatter creates a formatter for the named format.
func NewFormatter(format string) (Formatter, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	switch f {
	case FormatJSON:
		return &JSONFormatter{Indent: true}, nil
	case FormatMarkdown:
		return &MarkdownFormatter{}, nil
	default:
		return &TextFormatter{}, nil
	}
}

// WriteDiagnostics prints errors then warnings, one per line.
func WriteDiagnostics(w io.Writer, errs, warnings []*gpErrors.Error) error {
	for _, group := range []struct {
		label string
		items []*gpErrors.Error
	}{{"error  ", errs}, {"warning", warnings}} {
		for _, d := range group.items {
			line := fmt.Sprintf("%s %s", group.label, d.Code)
			if d.Path != "" {
				line += " " + d.Path
			}
			line += ": " + d.Message
			if d.Suggestion != "" {
				line += " (" + d.Suggestion + ")"
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}
