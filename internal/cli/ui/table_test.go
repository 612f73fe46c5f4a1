package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true, "Name", "Type", "Flags")

	table.AddRow("name", "string", "required")
	table.AddRow("age", "integer")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, separator and 2 rows, got %d lines:\n%s", len(lines), buf.String())
	}

	if lines[0] != "Name  Type     Flags" {
		t.Errorf("unexpected header line %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "────") {
		t.Errorf("expected separator, got %q", lines[1])
	}
	if lines[2] != "name  string   required" {
		t.Errorf("unexpected row %q", lines[2])
	}
	if lines[3] != "age   integer  " {
		t.Errorf("missing cells should render empty, got %q", lines[3])
	}
	if table.Len() != 2 {
		t.Errorf("expected 2 rows, got %d", table.Len())
	}
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewTable(&buf, true).Render()

	if buf.Len() != 0 {
		t.Errorf("expected no output for a table without headers, got %q", buf.String())
	}
}

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	kv := NewKeyValueTable(&buf, true)
	kv.AddRow("Parent", "Model")
	kv.AddRow("Role", "settings")
	kv.Render()

	want := "Parent: Model\nRole:   settings\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestList(t *testing.T) {
	var buf bytes.Buffer
	List(&buf, []string{"greet", "save"}, true)

	if buf.String() != "• greet\n• save\n" {
		t.Errorf("unexpected list output %q", buf.String())
	}
}

func TestHeader(t *testing.T) {
	var buf bytes.Buffer
	Header(&buf, "Person", true)

	if buf.String() != "Person\n──────\n" {
		t.Errorf("unexpected header output %q", buf.String())
	}
}

func TestDividerDefaultWidth(t *testing.T) {
	var buf bytes.Buffer
	Divider(&buf, 0, true)

	if got := strings.Count(buf.String(), "─"); got != 80 {
		t.Errorf("expected 80 divider runes, got %d", got)
	}
}
