package commands

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	if cmd.Use != "modelkit" {
		t.Errorf("expected Use to be 'modelkit', got %s", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("expected Short description to be set")
	}

	// Check subcommands are registered
	expectedCommands := []string{"version", "describe", "validate", "serve", "new"}

	for _, expected := range expectedCommands {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == expected {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected command %s to be registered", expected)
		}
	}
}

func TestNewVersionCommand(t *testing.T) {
	// Set test version info
	Version = "1.0.0-test"
	GitCommit = "abc123"
	BuildDate = "2025-01-01"
	GoVersion = "go1.23"

	cmd := NewVersionCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.Run(cmd, []string{})

	for _, want := range []string{"1.0.0-test", "abc123", "2025-01-01", "go1.23"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected version output to contain %q, got %q", want, out.String())
		}
	}
}
