package git

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ustudiopd/eventlive/internal/testfixtures"
	"ustudiopd/eventlive/pkg/guideline"
)

func TestPoller_CheckTracksLastSync(t *testing.T) {
	requireGit(t)
	sourceDir := t.TempDir()
	source := createTestRepo(t, sourceDir)

	repo, err := NewRepository(testConfig(sourceDir, t.TempDir()), nil)
	if err != nil {
		t.Fatal(err)
	}
	poller := NewPoller(repo, time.Hour, nil)
	ctx := context.Background()

	if _, err := poller.Poll(ctx, nil); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if err := poller.Check(ctx); err != nil {
		t.Errorf("Check() after successful poll = %v", err)
	}

	p := testfixtures.Pack()
	p.ID = "gp-next"
	data, err := guideline.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	commitFiles(t, source, sourceDir, "add gp-next", map[string][]byte{"packs/gp-next.json": data})

	var changed []string
	if _, err := poller.Poll(ctx, func(_ context.Context, res *SyncResult) {
		changed = res.ChangedPacks
	}); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if len(changed) != 1 || changed[0] != "packs/gp-next.json" {
		t.Errorf("onChange saw %v, want [packs/gp-next.json]", changed)
	}
	if poller.Polls() != 2 {
		t.Errorf("Polls() = %d, want 2", poller.Polls())
	}
}

func TestPoller_FailedSyncFailsCheck(t *testing.T) {
	repo, err := NewRepository(testConfig(filepath.Join(t.TempDir(), "missing"), t.TempDir()), nil)
	if err != nil {
		t.Fatal(err)
	}
	poller := NewPoller(repo, time.Hour, nil)

	called := false
	if _, err := poller.Poll(context.Background(), func(context.Context, *SyncResult) { called = true }); err == nil {
		t.Fatal("Poll() of nonexistent repository should error")
	}
	if called {
		t.Error("onChange called after failed sync")
	}
	if err := poller.Check(context.Background()); err == nil {
		t.Error("Check() should report the failed sync")
	}
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	repo, err := NewRepository(testConfig(filepath.Join(t.TempDir(), "missing"), t.TempDir()), nil)
	if err != nil {
		t.Fatal(err)
	}
	poller := NewPoller(repo, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx, nil)
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for poller.Polls() == 0 {
		select {
		case <-deadline:
			t.Fatal("Run() never polled")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
