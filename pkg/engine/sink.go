package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"ustudiopd/eventlive/pkg/analysis"
	"ustudiopd/eventlive/pkg/report"
)

// Sink persists a finished run.
type Sink interface {
	Save(ctx context.Context, res *Result) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, res *Result) error

// Save calls f.
func (f SinkFunc) Save(ctx context.Context, res *Result) error {
	return f(ctx, res)
}

// DirSink writes each run to <Dir>/<campaign>/<run>/ as JSON documents,
// their Markdown renderings and a CSV export of the scored leads.
type DirSink struct {
	Dir string
}

// Files written by DirSink.
const (
	AnalysisJSONFile = "analysis.json"
	AnalysisMDFile   = "analysis.md"
	LeadsCSVFile     = "leads.csv"
	DecisionJSONFile = "decision.json"
	ReportJSONFile   = "report.json"
	ReportMDFile     = "report.md"
)

// RunDir returns the directory Save writes res to.
func (s DirSink) RunDir(res *Result) string {
	return filepath.Join(s.Dir, filepath.Base(res.CampaignID), res.RunID)
}

// Save implements Sink.
func (s DirSink) Save(ctx context.Context, res *Result) error {
	if s.Dir == "" {
		return fmt.Errorf("sink directory is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := s.RunDir(res)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}

	data, err := analysis.Marshal(res.Analysis)
	if err != nil {
		return fmt.Errorf("failed to encode analysis pack: %w", err)
	}
	var leads bytes.Buffer
	if err := report.WriteLeadsCSV(&leads, res.Analysis.LeadTiers, true); err != nil {
		return fmt.Errorf("failed to encode leads: %w", err)
	}
	files := map[string][]byte{
		AnalysisJSONFile: data,
		AnalysisMDFile:   []byte(report.RenderAnalysis(res.Analysis)),
		LeadsCSVFile:     leads.Bytes(),
	}

	if res.Report != nil {
		dp, err := json.MarshalIndent(res.Report.Decision, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode decision pack: %w", err)
		}
		rep, err := json.MarshalIndent(res.Report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode merged report: %w", err)
		}
		files[DecisionJSONFile] = dp
		files[ReportJSONFile] = rep
		files[ReportMDFile] = []byte(report.RenderMerged(res.Report))
	}

	for name, content := range files {
		if err := writeFileAtomic(filepath.Join(dir, name), content); err != nil {
			return err
		}
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
