package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/AlecAivazis/survey/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petsYAML = `classes:
  - name: app.Owner
    properties:
      name: {type: string, required: true}
  - name: app.Pet
    properties:
      name: {type: string, required: true}
      legs: 4
      vaccinated: {type: boolean}
      born: {type: date}
      owner: {type: app.Owner}
      secret: {type: string, private: true}
`

// scriptedAsk answers prompts by property name and records what was asked.
type scriptedAsk struct {
	answers map[string]any
	fail    error
	asked   []string
}

func (s *scriptedAsk) ask(p survey.Prompt, response any, opts ...survey.AskOpt) error {
	if s.fail != nil {
		return s.fail
	}

	var message string
	switch prompt := p.(type) {
	case *survey.Input:
		message = prompt.Message
	case *survey.Confirm:
		message = prompt.Message
	default:
		return fmt.Errorf("unexpected prompt %T", p)
	}
	name, _, _ := strings.Cut(message, " ")
	s.asked = append(s.asked, name)

	answer, ok := s.answers[name]
	if !ok {
		return nil
	}
	switch out := response.(type) {
	case *string:
		*out = answer.(string)
	case *bool:
		*out = answer.(bool)
	}
	return nil
}

func runNew(t *testing.T, s *scriptedAsk, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand(s.ask)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--no-color", "--log-level", "error", "new"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestNewInstance(t *testing.T) {
	defs := writeFile(t, t.TempDir(), "pets.yaml", petsYAML)
	s := &scriptedAsk{answers: map[string]any{
		"name":       "Rex",
		"vaccinated": true,
		"born":       "2020-05-01",
		"owner":      `{"name":"Ann"}`,
	}}

	out, _, err := runNew(t, s, "app.Pet", "-f", defs)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "legs", "vaccinated", "born", "owner"}, s.asked)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Rex", got["name"])
	assert.Equal(t, float64(4), got["legs"])
	assert.Equal(t, true, got["vaccinated"])
	assert.Equal(t, map[string]any{"name": "Ann"}, got["owner"])
	assert.NotContains(t, got, "secret")
}

func TestNewMissingRequired(t *testing.T) {
	defs := writeFile(t, t.TempDir(), "pets.yaml", petsYAML)

	_, stderr, err := runNew(t, &scriptedAsk{}, "app.Owner", "-f", defs)
	require.Error(t, err)
	assert.Contains(t, stderr, "VALIDATION FAILED")
	assert.Contains(t, stderr, "name:")
}

func TestNewBadAnswer(t *testing.T) {
	defs := writeFile(t, t.TempDir(), "pets.yaml", petsYAML)
	s := &scriptedAsk{answers: map[string]any{"name": "Rex", "legs": "many"}}

	_, _, err := runNew(t, s, "app.Pet", "-f", defs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `legs: "many" is not a valid integer`)
}

func TestNewInterrupted(t *testing.T) {
	defs := writeFile(t, t.TempDir(), "pets.yaml", petsYAML)
	interrupted := errors.New("interrupt")

	_, _, err := runNew(t, &scriptedAsk{fail: interrupted}, "app.Pet", "-f", defs)
	assert.ErrorIs(t, err, interrupted)
}

func TestConvertAnswer(t *testing.T) {
	tests := []struct {
		typ     string
		text    string
		want    any
		wantErr bool
	}{
		{"string", "  hi ", "hi", false},
		{"integer", "42", 42, false},
		{"integer", "x", nil, true},
		{"double", "2.5", 2.5, false},
		{"[integer]", "[1, 2]", []any{float64(1), float64(2)}, false},
		{"object", `{"a":1}`, map[string]any{"a": float64(1)}, false},
		{"object", `{`, nil, true},
		{"any", "plain text", "plain text", false},
		{"string", "   ", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.typ+"/"+tt.text, func(t *testing.T) {
			got, err := convertAnswer(tt.typ, tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
