package ui

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatError(t *testing.T) {
	tests := []struct {
		name     string
		opts     ErrorOptions
		contains []string
		excludes []string
	}{
		{
			name: "basic error",
			opts: ErrorOptions{
				Context: "class not found",
				Problem: "Cannot find class 'Pet'.",
			},
			contains: []string{"❌", "CLASS NOT FOUND", "Cannot find class 'Pet'."},
			excludes: []string{"Did you mean"},
		},
		{
			name: "suggestions and help",
			opts: ErrorOptions{
				Problem:      "Cannot find class 'Pt'.",
				Suggestions:  []string{"Pet", "Post"},
				HelpCommands: []string{"See all classes: modelkit describe"},
			},
			contains: []string{"Did you mean: Pet, Post?", "→ See all classes: modelkit describe"},
		},
		{
			name: "details",
			opts: ErrorOptions{
				Problem: "failed",
				Details: []string{"age: is required", "name: too short"},
			},
			contains: []string{"   age: is required\n", "   name: too short\n"},
		},
		{
			name:     "warning",
			opts:     ErrorOptions{Level: ErrorLevelWarning, Problem: "careful"},
			contains: []string{"⚠️", "careful"},
			excludes: []string{"❌"},
		},
		{
			name:     "info",
			opts:     ErrorOptions{Level: ErrorLevelInfo, Problem: "fyi"},
			contains: []string{"ℹ️", "fyi"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.NoColor = true
			out := FormatError(tt.opts)
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("expected output to contain %q, got:\n%s", want, out)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(out, unwanted) {
					t.Errorf("expected output not to contain %q, got:\n%s", unwanted, out)
				}
			}
		})
	}
}

func TestClassNotFoundError(t *testing.T) {
	out := ClassNotFoundError("Persn", []string{"Person", "Team", "app.Pet"}, true)

	if !strings.Contains(out, "Cannot find class 'Persn'.") {
		t.Errorf("missing problem line:\n%s", out)
	}
	if !strings.Contains(out, "Did you mean: Person?") {
		t.Errorf("expected a suggestion for Person:\n%s", out)
	}
}

func TestDefinitionError(t *testing.T) {
	out := DefinitionError("models.yaml", errors.New("line 3: bad type\nline 9: unknown parent"), true)

	for _, want := range []string{"DEFINITION ERROR: models.yaml", "   line 3: bad type\n", "   line 9: unknown parent\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
}

func TestValidationFailed(t *testing.T) {
	out := ValidationFailed("Person", map[string][]string{
		"name": {"is required"},
		"age":  {"x is of type string not number"},
	}, true)

	ageAt := strings.Index(out, "age: x is of type string not number")
	nameAt := strings.Index(out, "name: is required")
	if ageAt < 0 || nameAt < 0 || ageAt > nameAt {
		t.Errorf("expected sorted property messages, got:\n%s", out)
	}
}

func TestFormatSuccess(t *testing.T) {
	if got := FormatSuccess("3 classes loaded", true); got != "✓ 3 classes loaded" {
		t.Errorf("unexpected success message %q", got)
	}
}

func TestConfigErrorAndWarning(t *testing.T) {
	if out := ConfigError("bad port", true); !strings.Contains(out, "CONFIGURATION ERROR: bad port") {
		t.Errorf("unexpected config error:\n%s", out)
	}
	if out := Warning("no definitions", true); !strings.Contains(out, "⚠️ no definitions") {
		t.Errorf("unexpected warning:\n%s", out)
	}
}
