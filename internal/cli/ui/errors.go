package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// ErrorLevel represents the severity of an error message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Details      []string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// FormatError creates a standardized error message with suggestions and help commands
//
// Example output:
//
//	❌ CLASS NOT FOUND: Cannot find class 'Persn'.
//
//	   Did you mean: Person?
//
//	   → See all classes: modelkit describe
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	var header, body *color.Color
	var symbol string
	switch opts.Level {
	case ErrorLevelWarning:
		header, body, symbol = color.New(color.FgYellow, color.Bold), color.New(color.FgYellow), "⚠️"
	case ErrorLevelInfo:
		header, body, symbol = color.New(color.FgCyan, color.Bold), color.New(color.FgCyan), "ℹ️"
	default:
		header, body, symbol = color.New(color.FgRed, color.Bold), color.New(color.FgRed), "❌"
	}
	if opts.NoColor {
		header.DisableColor()
		body.DisableColor()
	}

	if opts.Context != "" {
		header.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	if len(opts.Details) > 0 {
		b.WriteString("\n")
		for _, d := range opts.Details {
			body.Fprintf(&b, "   %s\n", d)
		}
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		styled(opts.NoColor, color.FgYellow).Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := styled(opts.NoColor, color.FgCyan)
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	return styled(noColor, color.FgGreen, color.Bold).Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// ClassNotFoundError reports an unknown class name, suggesting registered
// names that are close to it.
func ClassNotFoundError(name string, known []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Context:     "class not found",
		Problem:     fmt.Sprintf("Cannot find class '%s'.", name),
		Suggestions: FindSimilar(name, known, 3),
		HelpCommands: []string{
			"See all classes: modelkit describe",
			"Get help: modelkit describe --help",
		},
		NoColor: noColor,
	})
}

// DefinitionError reports a definition file that could not be loaded.
func DefinitionError(path string, err error, noColor bool) string {
	return FormatError(ErrorOptions{
		Context:      "definition error",
		Problem:      path,
		Details:      strings.Split(err.Error(), "\n"),
		HelpCommands: []string{"Get help: modelkit --help"},
		NoColor:      noColor,
	})
}

// ValidationFailed lists per-property validation messages, sorted by
// property.
func ValidationFailed(class string, fields map[string][]string, noColor bool) string {
	props := make([]string, 0, len(fields))
	for p := range fields {
		props = append(props, p)
	}
	sort.Strings(props)

	var details []string
	for _, p := range props {
		for _, msg := range fields[p] {
			details = append(details, fmt.Sprintf("%s: %s", p, msg))
		}
	}
	return FormatError(ErrorOptions{
		Context: "validation failed",
		Problem: fmt.Sprintf("Values are not valid for %s.", class),
		Details: details,
		NoColor: noColor,
	})
}

// ConfigError creates a standardized configuration error
func ConfigError(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Context:      "configuration error",
		Problem:      message,
		HelpCommands: []string{"View config: cat modelkit.yaml"},
		NoColor:      noColor,
	})
}

// Warning creates a standardized warning message
func Warning(message string, noColor bool) string {
	return FormatError(ErrorOptions{Level: ErrorLevelWarning, Problem: message, NoColor: noColor})
}
