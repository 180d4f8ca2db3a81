package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ustudiopd/eventlive/pkg/analysis"
	"ustudiopd/eventlive/pkg/guideline"
	"ustudiopd/eventlive/pkg/merge"
	"ustudiopd/eventlive/pkg/report"
)

// Document kinds accepted by render.
const (
	kindAuto      = "auto"
	kindAnalysis  = "analysis"
	kindReport    = "report"
	kindGuideline = "guideline"
)

var renderFlags struct {
	kind  string
	style string
	width int
	raw   bool
}

var renderCmd = &cobra.Command{
	Use:   "render FILE",
	Short: "Render an analysis pack, report or guideline pack for the terminal",
	Long: `Render an analysis pack, merged report or guideline pack as Markdown styled
for the terminal.

The document kind is detected from its version tag unless --kind is given.
Use --raw to print the Markdown itself.

Examples:
  eventlive render reports/camp-1/<run>/report.json
  eventlive render pack.yaml --style light --width 80
  eventlive render analysis.json --raw > analysis.md`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVar(&renderFlags.kind, "kind", kindAuto, "document kind: auto, analysis, report, guideline")
	renderCmd.Flags().StringVar(&renderFlags.style, "style", "", "glamour style: dark, light, notty (default: detect)")
	renderCmd.Flags().IntVar(&renderFlags.width, "width", report.DefaultWrap, "word-wrap width")
	renderCmd.Flags().BoolVar(&renderFlags.raw, "raw", false, "print Markdown without terminal styling")
}

func runRender(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	kind := renderFlags.kind
	if kind == kindAuto {
		kind = detectKind(args[0], data)
	}
	markdown, err := renderMarkdown(kind, data)
	if err != nil {
		return err
	}
	return writeRendered(cmd.OutOrStdout(), markdown)
}

// detectKind inspects the version tag; YAML files are guideline packs.
func detectKind(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return kindGuideline
	}
	var head struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return kindAnalysis
	}
	switch head.Version {
	case merge.Version:
		return kindReport
	case guideline.Version:
		return kindGuideline
	default:
		return kindAnalysis
	}
}

func renderMarkdown(kind string, data []byte) (string, error) {
	switch kind {
	case kindAnalysis:
		ap, err := analysis.LoadAnalysisPack(data)
		if err != nil {
			return "", err
		}
		return report.RenderAnalysis(ap), nil
	case kindReport:
		var r merge.Report
		if err := json.Unmarshal(data, &r); err != nil {
			return "", fmt.Errorf("malformed report: %w", err)
		}
		if r.Version != merge.Version {
			return "", fmt.Errorf("unsupported report version %q", r.Version)
		}
		return report.RenderMerged(&r), nil
	case kindGuideline:
		p, err := guideline.Parse(data)
		if err != nil {
			return "", err
		}
		return report.RenderGuideline(p), nil
	default:
		return "", fmt.Errorf("unknown document kind %q (valid: auto, analysis, report, guideline)", kind)
	}
}

func writeRendered(w io.Writer, markdown string) error {
	if renderFlags.raw {
		_, err := io.WriteString(w, markdown)
		return err
	}
	styled, err := report.RenderTerminal(markdown, renderFlags.style, renderFlags.width)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, styled)
	return err
}
