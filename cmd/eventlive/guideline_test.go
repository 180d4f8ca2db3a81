package main

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ustudiopd/eventlive/internal/testfixtures"
	"ustudiopd/eventlive/pkg/config"
	"ustudiopd/eventlive/pkg/guideline"
	"ustudiopd/eventlive/pkg/store/guidelines"
	"ustudiopd/eventlive/pkg/store/guidelines/retention"
)

func useGuidelineStore(t *testing.T) {
	t.Helper()
	useConfig(t, `
storage:
  guidelines:
    backend: "sqlite"
    sqlite:
      path: "`+filepath.Join(t.TempDir(), "guidelines.db")+`"
`)
}

func packFile(t *testing.T, id string) string {
	t.Helper()
	p := testfixtures.Pack()
	p.ID = id
	return writePack(t, p)
}

func createPack(t *testing.T, id string, publish bool) PackSummary {
	t.Helper()
	guidelineCreateFlags.campaignID = ""
	guidelineCreateFlags.publish = publish
	guidelineCreateFlags.format = "json"

	cmd, out := newTestCommand()
	if err := runGuidelineCreate(cmd, []string{packFile(t, id)}); err != nil {
		t.Fatalf("create %s: %v", id, err)
	}
	var got PackSummary
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	return got
}

func listPacks(t *testing.T, status string) PackList {
	t.Helper()
	guidelineListFlags.campaignID = "camp-1"
	guidelineListFlags.status = status
	guidelineListFlags.format = "json"

	cmd, out := newTestCommand()
	if err := runGuidelineList(cmd, nil); err != nil {
		t.Fatalf("list: %v", err)
	}
	var got PackList
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	return got
}

func TestGuidelineLifecycle(t *testing.T) {
	useGuidelineStore(t)

	draft := createPack(t, "gp-a", false)
	if draft.Status != guideline.StatusDraft || draft.CampaignID != "camp-1" {
		t.Fatalf("created = %+v, want camp-1 draft", draft)
	}

	guidelinePublishFlags.format = "json"
	cmd, out := newTestCommand()
	if err := runGuidelinePublish(cmd, []string{"gp-a"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	var published PackSummary
	if err := json.Unmarshal(out.Bytes(), &published); err != nil {
		t.Fatal(err)
	}
	if published.Status != guideline.StatusPublished || published.PublishedAt == nil {
		t.Errorf("published = %+v", published)
	}

	if next := createPack(t, "gp-b", true); next.Status != guideline.StatusPublished {
		t.Errorf("gp-b status = %s, want published", next.Status)
	}

	archived := listPacks(t, "archived")
	if len(archived) != 1 || archived[0].ID != "gp-a" || archived[0].ArchivedAt == nil {
		t.Errorf("archived = %+v, want gp-a", archived)
	}
	if all := listPacks(t, ""); len(all) != 2 {
		t.Errorf("list returned %d packs, want 2", len(all))
	}
}

func TestGuidelineCreateOverridesCampaign(t *testing.T) {
	useGuidelineStore(t)
	guidelineCreateFlags.campaignID = "camp-9"
	guidelineCreateFlags.publish = false
	guidelineCreateFlags.format = "text"
	defer func() { guidelineCreateFlags.campaignID = "" }()

	cmd, out := newTestCommand()
	if err := runGuidelineCreate(cmd, []string{packFile(t, "gp-x")}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.Contains(out.String(), "gp-x  draft     camp-9") {
		t.Errorf("output = %q", out.String())
	}
}

func TestGuidelineCreateRejectsInvalidPack(t *testing.T) {
	useGuidelineStore(t)
	p := testfixtures.Pack()
	p.FormID = ""
	guidelineCreateFlags.publish = false
	guidelineCreateFlags.format = "text"

	cmd, _ := newTestCommand()
	wantExitCode(t, runGuidelineCreate(cmd, []string{writePack(t, p)}), 2)
}

func TestGuidelinePublishUnknown(t *testing.T) {
	useGuidelineStore(t)
	guidelinePublishFlags.format = "text"

	cmd, _ := newTestCommand()
	if err := runGuidelinePublish(cmd, []string{"missing"}); err == nil {
		t.Error("publish of unknown pack should return error")
	}
}

func TestGuidelineListEmptyAndInvalidStatus(t *testing.T) {
	useGuidelineStore(t)
	guidelineListFlags.campaignID = ""
	guidelineListFlags.status = ""
	guidelineListFlags.format = "text"

	cmd, out := newTestCommand()
	if err := runGuidelineList(cmd, nil); err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.TrimSpace(out.String()) != "No guideline packs found" {
		t.Errorf("output = %q", out.String())
	}

	guidelineListFlags.status = "retired"
	defer func() { guidelineListFlags.status = "" }()
	if err := runGuidelineList(cmd, nil); err == nil {
		t.Error("list with unknown status should return error")
	}
}

func TestGuidelinePrune(t *testing.T) {
	useGuidelineStore(t)
	for _, id := range []string{"gp-a", "gp-b", "gp-c"} {
		createPack(t, id, true)
	}

	guidelinePruneFlags.days = 0
	guidelinePruneFlags.keep = 1
	guidelinePruneFlags.dryRun = true
	defer func() {
		guidelinePruneFlags.days, guidelinePruneFlags.keep, guidelinePruneFlags.dryRun = -1, -1, false
	}()

	cmd, out := newTestCommand()
	if err := runGuidelinePrune(cmd, nil); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !strings.Contains(out.String(), "1 pack(s) would be deleted") {
		t.Errorf("dry run output = %q", out.String())
	}
	if n := len(listPacks(t, "archived")); n != 2 {
		t.Fatalf("dry run deleted packs: %d archived left, want 2", n)
	}

	guidelinePruneFlags.dryRun = false
	cmd, out = newTestCommand()
	if err := runGuidelinePrune(cmd, nil); err != nil {
		t.Fatalf("prune: %v", err)
	}
	if !strings.Contains(out.String(), "✓ Deleted 1 archived pack(s)") {
		t.Errorf("prune output = %q", out.String())
	}
	if n := len(listPacks(t, "archived")); n != 1 {
		t.Errorf("%d archived packs left, want 1", n)
	}
	if n := len(listPacks(t, "published")); n != 1 {
		t.Errorf("%d published packs, want 1", n)
	}
}

func TestPruneCandidates(t *testing.T) {
	ctx := context.Background()
	clock := testfixtures.Epoch
	store := guidelines.NewMemoryStore(func() time.Time { return clock })

	// Each publish archives the previous pack: a on day 1, b on day 2, c on day 3.
	for i, id := range []string{"a", "b", "c", "d"} {
		clock = testfixtures.Epoch.AddDate(0, 0, i)
		p := testfixtures.Pack()
		p.ID = id
		if err := store.Create(ctx, p); err != nil {
			t.Fatal(err)
		}
		if _, err := store.Publish(ctx, id); err != nil {
			t.Fatal(err)
		}
	}
	now := testfixtures.Epoch.AddDate(0, 0, 32)

	tests := []struct {
		name string
		rc   retention.Config
		want []string
	}{
		{"age", retention.Config{RetentionDays: 30}, []string{"a"}},
		{"age and cap", retention.Config{RetentionDays: 30, MaxArchived: 1}, []string{"a", "b"}},
		{"cap only", retention.Config{MaxArchived: 2}, []string{"a"}},
		{"disabled", retention.Config{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doomed, err := pruneCandidates(ctx, store, &tt.rc, now)
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, p := range doomed {
				got = append(got, p.ID)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("candidates = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRetentionConfigFromSettings(t *testing.T) {
	s := retentionConfig(config.RetentionConfig{Days: 14, MaxArchived: 5, PruneSchedule: "@daily"})
	if s.RetentionDays != 14 || s.MaxArchived != 5 || s.PruneSchedule != "@daily" {
		t.Errorf("retention config = %+v", s)
	}
}
