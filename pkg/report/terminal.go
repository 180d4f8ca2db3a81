package report

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// DefaultWrap is the terminal word-wrap width.
const DefaultWrap = 100

// RenderTerminal styles markdown for a terminal. style is a glamour style
// name ("dark", "light", "notty"); empty selects one from the terminal
// background.
func RenderTerminal(markdown, style string, width int) (string, error) {
	if width <= 0 {
		width = DefaultWrap
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("create terminal renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
