package main

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"testing"

	"ustudiopd/eventlive/pkg/cli"
)

func TestVersionCommandExists(t *testing.T) {
	if versionCmd == nil {
		t.Fatal("versionCmd is nil")
	}
	if versionCmd.Use != "version" {
		t.Errorf("versionCmd.Use = %q, want %q", versionCmd.Use, "version")
	}
	if versionCmd.Short == "" {
		t.Error("versionCmd.Short should not be empty")
	}
	if versionCmd.Run == nil {
		t.Error("versionCmd.Run should not be nil")
	}
}

func TestVersionOutput(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()
	Version = "0.1.0-test"
	GitCommit = "abc123"

	cmd, out := newTestCommand()
	versionCmd.Run(cmd, nil)

	for _, want := range []string{"Eventlive 0.1.0-test", "Git Commit: abc123", "Go Version: " + runtime.Version()} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"analyze", "campaign", "compile", "fingerprint", "guideline", "lint", "merge", "reconcile", "render", "roles", "serve", "validate", "version"}
	have := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", errors.New("boom"), 1},
		{"invalid", cli.Invalid("bad pack"), 2},
		{"wrapped invalid", fmt.Errorf("lint: %w", cli.Invalid("bad pack")), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
