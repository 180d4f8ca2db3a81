package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"ustudiopd/eventlive/internal/testfixtures"
	"ustudiopd/eventlive/pkg/guideline"
	gpErrors "ustudiopd/eventlive/pkg/guideline/errors"
	"ustudiopd/eventlive/pkg/survey"
)

// withoutQuestion returns the scenario campaign minus one question.
func withoutQuestion(id string) *survey.CampaignData {
	data := testfixtures.ScenarioCampaign()
	kept := data.Questions[:0]
	for _, q := range data.Questions {
		if q.ID != id {
			kept = append(kept, q)
		}
	}
	data.Questions = kept
	return data
}

func TestValidatePackOnly(t *testing.T) {
	validateFlags.campaign = campaignFlags{}
	validateFlags.format = "text"
	path := writePack(t, testfixtures.Pack())

	cmd, out := newTestCommand()
	if err := runValidate(cmd, []string{path}); err != nil {
		t.Fatalf("runValidate() error = %v", err)
	}
	if !strings.Contains(out.String(), "is valid") {
		t.Errorf("output = %q", out.String())
	}
}

func TestValidateFingerprintDrift(t *testing.T) {
	validateFlags.campaign = campaignFlags{dataFile: writeCampaign(t, withoutQuestion(testfixtures.QComments))}
	validateFlags.format = "json"
	path := writePack(t, testfixtures.Pack())

	cmd, out := newTestCommand()
	if err := runValidate(cmd, []string{path}); err != nil {
		t.Fatalf("runValidate() error = %v", err)
	}

	var got ValidateResult
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if !got.IsValid {
		t.Errorf("drift should not invalidate the pack: %v", gpErrors.Messages(got.Errors))
	}
	drift := false
	for _, w := range got.Warnings {
		if w.Code == gpErrors.CodeFingerprintDrift {
			drift = true
		}
	}
	if !drift {
		t.Error("missing fingerprint drift warning")
	}
}

func TestValidateInvalidPack(t *testing.T) {
	validateFlags.campaign = campaignFlags{}
	validateFlags.format = "text"
	p := testfixtures.Pack()
	p.FormID = ""
	path := writePack(t, p)

	cmd, _ := newTestCommand()
	wantExitCode(t, runValidate(cmd, []string{path}), 2)
}

func TestCompile(t *testing.T) {
	compileFlags.campaign = campaignFlags{dataFile: writeCampaign(t, testfixtures.ScenarioCampaign())}
	compileFlags.logicalKeys = nil
	compileFlags.format = "json"
	path := writePack(t, testfixtures.Pack())

	cmd, out := newTestCommand()
	if err := runCompile(cmd, []string{path}); err != nil {
		t.Fatalf("runCompile() error = %v", err)
	}

	var got CompileResult
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if !got.Success || got.Compiled == nil {
		t.Fatalf("compile failed: %v", gpErrors.Messages(got.Errors))
	}
	if len(got.Compiled.Slots) != len(testfixtures.Pack().QuestionMap) {
		t.Errorf("slots = %d, want %d", len(got.Compiled.Slots), len(testfixtures.Pack().QuestionMap))
	}
	if got.Compiled.FormRevision != "rev-1" {
		t.Errorf("FormRevision = %q, want rev-1", got.Compiled.FormRevision)
	}
}

func TestCompileMissingCoreQuestion(t *testing.T) {
	compileFlags.campaign = campaignFlags{dataFile: writeCampaign(t, withoutQuestion(testfixtures.QTimeline))}
	compileFlags.logicalKeys = nil
	compileFlags.format = "text"
	path := writePack(t, testfixtures.Pack())

	cmd, out := newTestCommand()
	wantExitCode(t, runCompile(cmd, []string{path}), 2)
	if !strings.Contains(out.String(), "failed to compile") {
		t.Errorf("output = %q", out.String())
	}
}

func TestReconcileWritesPack(t *testing.T) {
	data := testfixtures.ScenarioCampaign()
	data.Questions[0].Options = data.Questions[0].Options[:2]
	reconcileFlags.campaign = campaignFlags{dataFile: writeCampaign(t, data)}
	reconcileFlags.out = filepath.Join(t.TempDir(), "reconciled.json")
	reconcileFlags.format = "text"
	path := writePack(t, testfixtures.Pack())

	cmd, out := newTestCommand()
	if err := runReconcile(cmd, []string{path}); err != nil {
		t.Fatalf("runReconcile() error = %v", err)
	}
	if !strings.Contains(out.String(), "can be reconciled") {
		t.Errorf("output = %q", out.String())
	}

	reconciled, err := guideline.Load(reconcileFlags.out)
	if err != nil {
		t.Fatalf("reconciled pack not written: %v", err)
	}
	if want := survey.FingerprintQuestions(data.Questions); reconciled.FormFingerprint != want {
		t.Errorf("FormFingerprint = %q, want %q", reconciled.FormFingerprint, want)
	}
}

func TestReconcileUnrelatedForm(t *testing.T) {
	data := &survey.CampaignData{
		CampaignID: "camp-1",
		FormID:     "form-1",
		Questions: []survey.Question{
			{ID: "n1", OrderNo: 10, Body: "Company name", Type: survey.TypeText, RoleOverride: "other"},
			{ID: "n2", OrderNo: 11, Body: "Job title", Type: survey.TypeText, RoleOverride: "other"},
		},
	}
	reconcileFlags.campaign = campaignFlags{dataFile: writeCampaign(t, data)}
	reconcileFlags.out = ""
	reconcileFlags.format = "text"
	path := writePack(t, testfixtures.Pack())

	cmd, out := newTestCommand()
	wantExitCode(t, runReconcile(cmd, []string{path}), 2)
	if !strings.Contains(out.String(), "cannot be reconciled") {
		t.Errorf("output = %q", out.String())
	}
}
