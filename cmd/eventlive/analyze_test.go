package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ustudiopd/eventlive/internal/testfixtures"
	"ustudiopd/eventlive/pkg/engine"
	"ustudiopd/eventlive/pkg/guideline"
	"ustudiopd/eventlive/pkg/merge"
)

const decisionJSON = `{"version":"dp-1.0","summary":"Visit the hot leads.","cards":[{"id":"C1","title":"Visit","recommendation":"Book visits.","priority":"high","evidenceIds":["E1","E2"]}],"actionBoard":{"today":[{"action":"Call P0 leads","targetCount":3}],"thisWeek":[],"thisMonth":[]}}`

func setAnalyzeFlags(t *testing.T, format string) {
	analyzeFlags.campaign = campaignFlags{dataFile: writeCampaign(t, testfixtures.ScenarioCampaign())}
	analyzeFlags.guidelineFile = writePack(t, testfixtures.Pack())
	analyzeFlags.outDir = t.TempDir()
	analyzeFlags.skipGeneration = true
	analyzeFlags.format = format
}

// runAnalyzeJSON runs analyze and decodes its JSON output.
func runAnalyzeJSON(t *testing.T) *AnalyzeOutput {
	t.Helper()
	cmd, out := newTestCommand()
	if err := runAnalyze(cmd, nil); err != nil {
		t.Fatalf("runAnalyze() error = %v", err)
	}
	var got AnalyzeOutput
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	return &got
}

func TestAnalyzeFromExport(t *testing.T) {
	setAnalyzeFlags(t, "json")
	got := runAnalyzeJSON(t)

	if got.CampaignID != "camp-1" || got.GuidelineID != "gp-sample" {
		t.Errorf("output = %+v", got)
	}
	if got.Fingerprint != testfixtures.Fingerprint() {
		t.Errorf("Fingerprint = %q, want fixture fingerprint", got.Fingerprint)
	}
	if got.Analysis == nil || got.Analysis.Campaign.SampleCount != 50 {
		t.Fatalf("Analysis = %+v, want 50 samples", got.Analysis)
	}
	if got.Decision != nil {
		t.Error("Decision drafted despite --skip-generation")
	}

	want := filepath.Join(analyzeFlags.outDir, "camp-1", got.RunID)
	if got.OutputDir != want {
		t.Errorf("OutputDir = %q, want %q", got.OutputDir, want)
	}
	for _, name := range []string{engine.AnalysisJSONFile, engine.AnalysisMDFile} {
		if _, err := os.Stat(filepath.Join(want, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestAnalyzeText(t *testing.T) {
	setAnalyzeFlags(t, "text")
	analyzeFlags.outDir = ""

	cmd, out := newTestCommand()
	if err := runAnalyze(cmd, nil); err != nil {
		t.Fatalf("runAnalyze() error = %v", err)
	}
	for _, want := range []string{"✓ Analyzed camp-1: 50 submission(s)", "Guideline:   gp-sample"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
	if strings.Contains(out.String(), "Output:") {
		t.Error("output directory reported with --out disabled")
	}
}

func TestAnalyzeMarkdown(t *testing.T) {
	setAnalyzeFlags(t, "markdown")
	analyzeFlags.outDir = ""

	cmd, out := newTestCommand()
	if err := runAnalyze(cmd, nil); err != nil {
		t.Fatalf("runAnalyze() error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "# Survey analysis: Cloud Security Webinar") {
		t.Errorf("markdown output starts with %q", firstLine(out.String()))
	}
}

func TestAnalyzeWithGenerator(t *testing.T) {
	ms := testfixtures.NewModelServer()
	defer ms.Close()
	ms.Enqueue("/v1/chat/completions",
		testfixtures.ModelResponse{Body: testfixtures.ChatCompletion(decisionJSON, "m")},
	)
	useConfig(t, `
engine:
  base_delay: "1ms"
generator:
  enabled: true
  kind: "openai"
  base_url: "`+ms.URL()+`/"
  api_key: "sk-test"
  model: "m"
  timeout: "2s"
cache:
  backend: "none"
`)
	setAnalyzeFlags(t, "json")
	analyzeFlags.skipGeneration = false

	got := runAnalyzeJSON(t)
	if got.Decision == nil || len(got.Decision.Cards) != 1 {
		t.Fatalf("Decision = %+v, want one card", got.Decision)
	}
	if len(ms.Requests()) != 1 {
		t.Errorf("generator requests = %d, want 1", len(ms.Requests()))
	}
	for _, name := range []string{engine.DecisionJSONFile, engine.ReportJSONFile, engine.ReportMDFile} {
		if _, err := os.Stat(filepath.Join(got.OutputDir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestAnalyzeUnknownCampaign(t *testing.T) {
	useConfig(t, `
storage:
  campaigns:
    backend: "sqlite"
    sqlite:
      path: "`+filepath.Join(t.TempDir(), "campaigns.db")+`"
`)
	setAnalyzeFlags(t, "text")
	analyzeFlags.campaign = campaignFlags{campaignID: "missing"}

	cmd, _ := newTestCommand()
	if err := runAnalyze(cmd, nil); err == nil {
		t.Error("runAnalyze() for unknown campaign should return error")
	}
}

// analysisFile runs analyze and returns the written analysis pack path.
func analysisFile(t *testing.T) string {
	t.Helper()
	setAnalyzeFlags(t, "json")
	got := runAnalyzeJSON(t)
	return filepath.Join(got.OutputDir, engine.AnalysisJSONFile)
}

func writeText(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestMerge(t *testing.T) {
	mergeFlags.analysisFile = analysisFile(t)
	mergeFlags.decisionFile = writeText(t, "decision.txt", "Here you go:\n```json\n"+decisionJSON+"\n```\n")
	mergeFlags.out = filepath.Join(t.TempDir(), "report.json")
	mergeFlags.format = "json"

	cmd, out := newTestCommand()
	if err := runMerge(cmd, nil); err != nil {
		t.Fatalf("runMerge() error = %v", err)
	}

	var printed merge.Report
	if err := json.Unmarshal(out.Bytes(), &printed); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if printed.Version != merge.Version || printed.Decision == nil || printed.Decision.Summary != "Visit the hot leads." {
		t.Errorf("report = %+v", printed)
	}

	written, err := os.ReadFile(mergeFlags.out)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !bytes.Contains(written, []byte(`"version": "mr-1.0"`)) {
		t.Error("written report missing version")
	}
}

func TestMergeRejectsInvalidDecision(t *testing.T) {
	mergeFlags.analysisFile = analysisFile(t)
	mergeFlags.decisionFile = writeText(t, "decision.json",
		`{"version":"dp-1.0","summary":"","cards":[],"actionBoard":{"today":[],"thisWeek":[],"thisMonth":[]}}`)
	mergeFlags.out = ""
	mergeFlags.format = "text"

	cmd, _ := newTestCommand()
	wantExitCode(t, runMerge(cmd, nil), 2)
}

func TestMergeUnparseableDecision(t *testing.T) {
	mergeFlags.analysisFile = analysisFile(t)
	mergeFlags.decisionFile = writeText(t, "decision.txt", "I cannot help with that.")
	mergeFlags.out = ""
	mergeFlags.format = "text"

	cmd, _ := newTestCommand()
	if err := runMerge(cmd, nil); err == nil {
		t.Error("runMerge() with unparseable decision should return error")
	}
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		path string
		data string
		want string
	}{
		{"pack.yaml", "version: gp-1.0", kindGuideline},
		{"pack.yml", "{}", kindGuideline},
		{"pack.json", `{"version":"gp-1.0"}`, kindGuideline},
		{"report.json", `{"version":"mr-1.0"}`, kindReport},
		{"analysis.json", `{"version":"ap-1.0"}`, kindAnalysis},
		{"notes.txt", "not json", kindAnalysis},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := detectKind(tt.path, []byte(tt.data)); got != tt.want {
				t.Errorf("detectKind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderRaw(t *testing.T) {
	renderFlags.kind = kindAuto
	renderFlags.raw = true
	defer func() { renderFlags.raw = false }()

	raw, err := guideline.Marshal(testfixtures.Pack())
	if err != nil {
		t.Fatal(err)
	}
	path := writeText(t, "pack.json", string(raw))

	cmd, out := newTestCommand()
	if err := runRender(cmd, []string{path}); err != nil {
		t.Fatalf("runRender() error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "# Guideline: Sample webinar guideline") {
		t.Errorf("output starts with %q", firstLine(out.String()))
	}
}

func TestRenderTerminal(t *testing.T) {
	renderFlags.kind = kindAnalysis
	renderFlags.raw = false
	renderFlags.style = "notty"
	renderFlags.width = 80
	defer func() { renderFlags.kind, renderFlags.style = kindAuto, "" }()

	cmd, out := newTestCommand()
	if err := runRender(cmd, []string{analysisFile(t)}); err != nil {
		t.Fatalf("runRender() error = %v", err)
	}
	if !strings.Contains(out.String(), "Survey analysis") {
		t.Errorf("rendered output missing heading:\n%s", out.String())
	}
}

func TestRenderUnknownKind(t *testing.T) {
	if _, err := renderMarkdown("slides", []byte("{}")); err == nil {
		t.Error("renderMarkdown() with unknown kind should return error")
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
