package decision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

// Generator produces a decision pack draft from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Retryable is implemented by generator errors that know whether a repeat
// request could succeed.
type Retryable interface {
	Retryable() bool
}

// Defaults for the retry loop.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
	MaxBackoff         = 30 * time.Second
)

// Attempt is the state carried between generation attempts.
type Attempt struct {
	// N is the 1-based attempt number.
	N int
	// LastErrors are the validation errors of the previous attempt.
	LastErrors []string
	// LastErr is the transport or parse error of the previous attempt.
	LastErr error
}

// AttemptLog records one finished attempt.
type AttemptLog struct {
	N        int           `json:"n"`
	Errors   []string      `json:"errors,omitempty"`
	Err      string        `json:"err,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Result is a successful generation.
type Result struct {
	Pack     *Pack
	Raw      string
	Attempts []AttemptLog
}

// GenerationError reports that the generator itself failed: a transport
// error, a non-retryable status, or a cancelled context.
type GenerationError struct {
	Attempts []AttemptLog
	Cause    error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	return fmt.Sprintf("decision pack generation failed after %d attempt(s): %v", len(e.Attempts), e.Cause)
}

// Unwrap returns the last generator error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// ValidationFailure reports that every attempt produced an unusable
// document.
type ValidationFailure struct {
	Attempts   []AttemptLog
	LastErrors []string
	LastRaw    string
}

// Error implements the error interface.
func (e *ValidationFailure) Error() string {
	return fmt.Sprintf("decision pack invalid after %d attempt(s): %s",
		len(e.Attempts), strings.Join(e.LastErrors, "; "))
}

// RetryConfig configures GenerateWithRetry.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// Sleep waits between attempts. It defaults to a context-aware timer
	// and is replaced in tests.
	Sleep  func(ctx context.Context, d time.Duration) error
	Logger *slog.Logger
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.Sleep == nil {
		c.Sleep = sleep
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Backoff returns the delay before the given attempt: base·2^(attempt-2)
// for attempt ≥ 2, capped at MaxBackoff. The first attempt has no delay.
func Backoff(attempt int, base time.Duration) time.Duration {
	if attempt <= 1 {
		return 0
	}
	d := time.Duration(math.Pow(2, float64(attempt-2))) * base
	if d > MaxBackoff || d <= 0 {
		return MaxBackoff
	}
	return d
}

// ShouldRetry reports whether another attempt may follow a failure. err is
// the generator error of the failed attempt, or nil when the attempt
// produced output that failed parsing or validation.
func ShouldRetry(err error, attempt, maxAttempts int) bool {
	if attempt >= maxAttempts {
		return false
	}
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var r Retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

// BuildPrompt appends the previous attempt's violations to the base prompt
// as explicit corrections. With no violations the base prompt is returned
// unchanged.
func BuildPrompt(base string, lastErrors []string) string {
	if len(lastErrors) == 0 {
		return base
	}
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\nYour previous answer was rejected. Fix every problem below and return the complete JSON document again:\n")
	for _, e := range lastErrors {
		b.WriteString("- ")
		b.WriteString(e)
		b.WriteString("\n")
	}
	return b.String()
}

// GenerateWithRetry runs the generator until it returns a valid pack or the
// attempt budget is spent.
func GenerateWithRetry(ctx context.Context, gen Generator, basePrompt string, cfg RetryConfig) (*Result, error) {
	cfg = cfg.withDefaults()

	var (
		logs    []AttemptLog
		lastRaw string
		state   = Attempt{N: 1}
	)
	for {
		if d := Backoff(state.N, cfg.BaseDelay); d > 0 {
			if err := cfg.Sleep(ctx, d); err != nil {
				return nil, &GenerationError{Attempts: logs, Cause: err}
			}
		}

		start := time.Now()
		raw, genErr := gen.Generate(ctx, BuildPrompt(basePrompt, state.LastErrors))
		entry := AttemptLog{N: state.N, Duration: time.Since(start)}

		var (
			pack    *Pack
			valErrs []string
		)
		if genErr == nil {
			lastRaw = raw
			p, err := Parse(raw)
			if err != nil {
				valErrs = []string{err.Error()}
			} else if valErrs = Validate(p); len(valErrs) == 0 {
				pack = p
			}
		}
		entry.Errors = valErrs
		if genErr != nil {
			entry.Err = genErr.Error()
		}
		logs = append(logs, entry)

		if pack != nil {
			cfg.Logger.Info("decision pack generated", "attempts", state.N)
			return &Result{Pack: pack, Raw: raw, Attempts: logs}, nil
		}

		cfg.Logger.Warn("decision pack attempt failed",
			"attempt", state.N,
			"max_attempts", cfg.MaxAttempts,
			"violations", len(valErrs),
			"error", genErr)

		if !ShouldRetry(genErr, state.N, cfg.MaxAttempts) {
			if genErr != nil {
				return nil, &GenerationError{Attempts: logs, Cause: genErr}
			}
			return nil, &ValidationFailure{Attempts: logs, LastErrors: valErrs, LastRaw: lastRaw}
		}

		next := Attempt{N: state.N + 1, LastErr: genErr, LastErrors: state.LastErrors}
		if genErr == nil {
			next.LastErrors = valErrs
		}
		state = next
	}
}
