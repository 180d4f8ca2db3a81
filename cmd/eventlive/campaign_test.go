package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"ustudiopd/eventlive/internal/testfixtures"
	"ustudiopd/eventlive/pkg/store/campaign"
)

func TestImportCampaigns(t *testing.T) {
	ctx := context.Background()
	source, err := campaign.NewSQLiteSource(campaign.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "campaigns.db"),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer source.Close()

	var imported []string
	files := []string{writeCampaign(t, testfixtures.ScenarioCampaign())}
	err = importCampaigns(ctx, source, files, func(id string, n int) {
		imported = append(imported, id)
		if n != 50 {
			t.Errorf("%s: %d submissions, want 50", id, n)
		}
	})
	if err != nil {
		t.Fatalf("importCampaigns() error = %v", err)
	}
	if len(imported) != 1 || imported[0] != "camp-1" {
		t.Errorf("imported = %v", imported)
	}

	data, err := source.Load(ctx, "camp-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(data.Submissions) != 50 || len(data.Questions) != 7 {
		t.Errorf("loaded %d submissions, %d questions", len(data.Submissions), len(data.Questions))
	}
}

func TestImportCampaignsBadFile(t *testing.T) {
	source, err := campaign.NewSQLiteSource(campaign.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "campaigns.db"),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer source.Close()

	bad := writeText(t, "campaign.json", `{"title":"no id"}`)
	err = importCampaigns(context.Background(), source, []string{bad}, func(string, int) {
		t.Error("done called for a rejected file")
	})
	if err == nil {
		t.Error("importCampaigns() with a campaign lacking an id should return error")
	}
}

func TestCampaignImportThenAnalyze(t *testing.T) {
	useConfig(t, `
storage:
  campaigns:
    backend: "sqlite"
    sqlite:
      path: "`+filepath.Join(t.TempDir(), "campaigns.db")+`"
`)

	cmd, out := newTestCommand()
	if err := runCampaignImport(cmd, []string{writeCampaign(t, testfixtures.ScenarioCampaign())}); err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out.String(), "✓ Imported camp-1 (50 submissions)") {
		t.Errorf("import output = %q", out.String())
	}

	setAnalyzeFlags(t, "json")
	analyzeFlags.campaign = campaignFlags{campaignID: "camp-1"}
	got := runAnalyzeJSON(t)
	if got.Fingerprint != testfixtures.Fingerprint() {
		t.Errorf("Fingerprint = %q, want the imported form's fingerprint", got.Fingerprint)
	}
}

func TestCampaignImportRequiresSQLite(t *testing.T) {
	useConfig(t, `
storage:
  campaigns:
    backend: "mongo"
    mongo:
      uri: "mongodb://localhost:27017"
`)
	cmd, _ := newTestCommand()
	if err := runCampaignImport(cmd, []string{"camp.json"}); err == nil {
		t.Error("import with the mongo backend should return error")
	}
}
