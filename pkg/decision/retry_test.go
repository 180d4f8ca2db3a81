package decision

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"ustudiopd/eventlive/internal/testfixtures"
	"ustudiopd/eventlive/pkg/analysis"
)

type retryableErr struct{ retry bool }

func (e retryableErr) Error() string   { return "upstream" }
func (e retryableErr) Retryable() bool { return e.retry }

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		attempt int
		max     int
		want    bool
	}{
		{"validation failure", nil, 1, 3, true},
		{"budget spent", nil, 3, 3, false},
		{"plain error", errors.New("connection reset"), 1, 3, true},
		{"retryable", retryableErr{retry: true}, 2, 3, true},
		{"not retryable", retryableErr{retry: false}, 1, 3, false},
		{"cancelled", context.Canceled, 1, 3, false},
		{"deadline", context.DeadlineExceeded, 1, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRetry(tt.err, tt.attempt, tt.max); got != tt.want {
				t.Errorf("ShouldRetry() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBackoff(t *testing.T) {
	base := time.Second
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 0},
		{2, time.Second},
		{3, 2 * time.Second},
		{4, 4 * time.Second},
		{10, MaxBackoff},
	}
	for _, tt := range tests {
		if got := Backoff(tt.attempt, base); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	if got := BuildPrompt("base", nil); got != "base" {
		t.Errorf("BuildPrompt(nil) = %q, want base prompt unchanged", got)
	}

	got := BuildPrompt("base", []string{"summary must not be empty", "cards[0].priority must be one of high, medium, low; got \"urgent\""})
	if !strings.HasPrefix(got, "base\n") {
		t.Errorf("prompt does not start with base context: %q", got)
	}
	for _, want := range []string{"previous answer was rejected", "- summary must not be empty", "- cards[0].priority"} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q:\n%s", want, got)
		}
	}
}

// scripted returns canned responses in order and records the prompts.
type scripted struct {
	responses []string
	errs      []error
	prompts   []string
}

func (s *scripted) Generate(_ context.Context, prompt string) (string, error) {
	i := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if err != nil {
		return "", err
	}
	return s.responses[i], nil
}

func testConfig(slept *[]time.Duration) RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Sleep: func(_ context.Context, d time.Duration) error {
			*slept = append(*slept, d)
			return nil
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestGenerateWithRetryFeedsErrorsBack(t *testing.T) {
	invalid := strings.Replace(validJSON, `"priority": "high"`, `"priority": "urgent"`, 1)
	gen := &scripted{responses: []string{invalid, validJSON}}
	var slept []time.Duration

	res, err := GenerateWithRetry(context.Background(), gen, "BASE", testConfig(&slept))
	if err != nil {
		t.Fatalf("GenerateWithRetry() error = %v", err)
	}
	if len(res.Attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(res.Attempts))
	}
	if gen.prompts[0] != "BASE" {
		t.Errorf("first prompt = %q, want base prompt", gen.prompts[0])
	}
	if !strings.Contains(gen.prompts[1], `priority must be one of high, medium, low; got "urgent"`) {
		t.Errorf("second prompt lacks the correction:\n%s", gen.prompts[1])
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Errorf("slept = %v, want [1s]", slept)
	}
	if res.Pack.Cards[0].Priority != PriorityHigh {
		t.Errorf("pack priority = %q", res.Pack.Cards[0].Priority)
	}
}

func TestGenerateWithRetryValidationFailure(t *testing.T) {
	gen := &scripted{responses: []string{"not json", "still not json", `{"version":"dp-1.0"}`}}
	var slept []time.Duration

	_, err := GenerateWithRetry(context.Background(), gen, "BASE", testConfig(&slept))
	var vf *ValidationFailure
	if !errors.As(err, &vf) {
		t.Fatalf("error = %v, want *ValidationFailure", err)
	}
	if len(vf.Attempts) != 3 {
		t.Errorf("attempts = %d, want 3", len(vf.Attempts))
	}
	if !containsSubstring(vf.LastErrors, "summary must not be empty") {
		t.Errorf("LastErrors = %v", vf.LastErrors)
	}
	if !strings.Contains(gen.prompts[1], "not valid JSON") {
		t.Errorf("parse error not fed back:\n%s", gen.prompts[1])
	}
	if want := []time.Duration{time.Second, 2 * time.Second}; len(slept) != 2 || slept[0] != want[0] || slept[1] != want[1] {
		t.Errorf("slept = %v, want %v", slept, want)
	}
}

func TestGenerateWithRetryGenerationError(t *testing.T) {
	gen := &scripted{
		responses: []string{"", ""},
		errs:      []error{errors.New("dial tcp: connection refused"), retryableErr{retry: false}},
	}
	var slept []time.Duration

	_, err := GenerateWithRetry(context.Background(), gen, "BASE", testConfig(&slept))
	var ge *GenerationError
	if !errors.As(err, &ge) {
		t.Fatalf("error = %v, want *GenerationError", err)
	}
	if len(ge.Attempts) != 2 {
		t.Errorf("attempts = %d, want 2", len(ge.Attempts))
	}
	var vf *ValidationFailure
	if errors.As(err, &vf) {
		t.Error("generation error must not be reported as a validation failure")
	}
}

func TestGenerateWithRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := &scripted{responses: []string{"nope"}}
	cfg := RetryConfig{
		MaxAttempts: 3,
		Sleep: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	_, err := GenerateWithRetry(ctx, gen, "BASE", cfg)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if len(gen.prompts) != 1 {
		t.Errorf("generator called %d times, want 1", len(gen.prompts))
	}
}

func TestBaseContext(t *testing.T) {
	ap := analysis.BuildAnalysisPack(testfixtures.ScenarioCampaign(), nil, analysis.Options{Now: func() time.Time { return testfixtures.Epoch }})

	prompt, err := BaseContext(ap)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"dp-1.0", "- E1 [distribution]", "Analysis pack:"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
