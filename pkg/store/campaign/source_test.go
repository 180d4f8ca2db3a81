package campaign

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ustudiopd/eventlive/internal/testfixtures"
	"ustudiopd/eventlive/pkg/survey"
)

func newSQLite(t *testing.T) *SQLiteSource {
	t.Helper()
	s, err := NewSQLiteSource(SQLiteConfig{Path: filepath.Join(t.TempDir(), "campaigns.db")}, nil)
	if err != nil {
		t.Fatalf("NewSQLiteSource() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMemorySource_Load(t *testing.T) {
	want := testfixtures.ScenarioCampaign()
	src := NewMemorySource(want)
	defer src.Close()

	got, err := src.Load(context.Background(), "camp-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}

	got.Answers[0].OptionIDs[0] = "mutated"
	again, _ := src.Load(context.Background(), "camp-1")
	if again.Answers[0].OptionIDs[0] == "mutated" {
		t.Error("Load() returned shared answer slices")
	}

	if _, err := src.Load(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMemorySource_Cancelled(t *testing.T) {
	src := NewMemorySource(testfixtures.ScenarioCampaign())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Load(ctx, "camp-1"); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestSQLiteSource_ImportLoad(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()
	want := testfixtures.ScenarioCampaign()

	if err := s.Import(ctx, want); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	got, err := s.Load(ctx, "camp-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}

	// Importing again replaces rather than duplicates.
	if err := s.Import(ctx, want); err != nil {
		t.Fatalf("second Import() error = %v", err)
	}
	got, err = s.Load(ctx, "camp-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got.Answers) != len(want.Answers) {
		t.Errorf("answers after re-import = %d, want %d", len(got.Answers), len(want.Answers))
	}
}

func TestSQLiteSource_NotFound(t *testing.T) {
	s := newSQLite(t)
	if _, err := s.Load(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteSource_LegacyOptions(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()

	stmts := []string{
		`INSERT INTO campaigns (id, form_id) VALUES ('c', 'f')`,
		`INSERT INTO form_questions (campaign_id, id, order_no, body, type, options)
		 VALUES ('c', 'q1', 1, 'When?', 'single', '["Now","Later"]')`,
		`INSERT INTO form_questions (campaign_id, id, order_no, body, type, options)
		 VALUES ('c', 'q2', 2, 'Which?', 'multiple', '[{"id":"a","text":"Alpha"},{"value":"b","label":"Beta"}]')`,
		`INSERT INTO form_questions (campaign_id, id, order_no, body, type, options)
		 VALUES ('c', 'q3', 3, 'Why?', 'text', '["ignored"]')`,
		`INSERT INTO form_questions (campaign_id, id, order_no, body, type, options)
		 VALUES ('c', 'q0', 0, 'Size?', 'single', 'Small
Large')`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}

	got, err := s.Load(ctx, "c")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []survey.Question{
		{ID: "q0", OrderNo: 0, Body: "Size?", Type: survey.TypeSingle, Options: []survey.Option{
			{ID: "Small", Text: "Small"}, {ID: "Large", Text: "Large"},
		}},
		{ID: "q1", OrderNo: 1, Body: "When?", Type: survey.TypeSingle, Options: []survey.Option{
			{ID: "Now", Text: "Now"}, {ID: "Later", Text: "Later"},
		}},
		{ID: "q2", OrderNo: 2, Body: "Which?", Type: survey.TypeMultiple, Options: []survey.Option{
			{ID: "a", Text: "Alpha"}, {ID: "b", Text: "Beta"},
		}},
		{ID: "q3", OrderNo: 3, Body: "Why?", Type: survey.TypeText},
	}
	if diff := cmp.Diff(want, got.Questions); diff != "" {
		t.Errorf("questions mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteSource_MalformedOptions(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()
	for _, stmt := range []string{
		`INSERT INTO campaigns (id, form_id) VALUES ('c', 'f')`,
		`INSERT INTO form_questions (campaign_id, id, order_no, body, type, options)
		 VALUES ('c', 'q1', 1, 'When?', 'single', '[broken')`,
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("exec: %v", err)
		}
	}

	_, err := s.Load(ctx, "c")
	var perr *survey.OptionParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Load() error = %v, want *survey.OptionParseError", err)
	}
}

func TestSQLiteSource_ImportRequiresID(t *testing.T) {
	s := newSQLite(t)
	err := s.Import(context.Background(), &survey.CampaignData{})
	var serr *StorageError
	if !errors.As(err, &serr) {
		t.Fatalf("Import() error = %v, want *StorageError", err)
	}
}

func TestNewSQLiteSource_RequiresPath(t *testing.T) {
	if _, err := NewSQLiteSource(SQLiteConfig{}, nil); err == nil {
		t.Error("NewSQLiteSource() with empty path succeeded")
	}
}

func TestPlainValue(t *testing.T) {
	in := primitive.A{
		"Now",
		bson.D{{Key: "id", Value: "b"}, {Key: "text", Value: "Beta"}},
		bson.M{"value": "c", "label": "Gamma"},
		int32(7),
	}
	got := plainValue(in)
	want := []any{
		"Now",
		map[string]any{"id": "b", "text": "Beta"},
		map[string]any{"value": "c", "label": "Gamma"},
		float64(7),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("plainValue() mismatch (-want +got):\n%s", diff)
	}

	opts, err := survey.NormalizeOptions(got)
	if err != nil {
		t.Fatalf("NormalizeOptions() error = %v", err)
	}
	if len(opts) != 4 || opts[1].ID != "b" || opts[3].ID != "7" {
		t.Errorf("NormalizeOptions() = %+v", opts)
	}
}
