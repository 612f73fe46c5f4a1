package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/modelkit/internal/cli/ui"
	"github.com/conduit-lang/modelkit/internal/model"
	"github.com/conduit-lang/modelkit/internal/model/types"
)

// askFunc asks one question; tests replace survey.AskOne with a script.
type askFunc func(p survey.Prompt, response any, opts ...survey.AskOpt) error

func newNewCommand(opts *options, ask askFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new <class>",
		Short: "Build an instance interactively",
		Long: `Prompt for every property of a class, construct an instance from the
answers and print it as JSON.

Blank answers keep the default. Scalars are converted like auto adjusted
properties; objects, lists and class references are entered as JSON.
Private properties are not asked for.`,
		Example: `  modelkit new app.Person > person.json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := opts.mustLoadRegistry(cmd)
			if err != nil {
				return err
			}
			c, err := opts.lookupClass(cmd, r, args[0])
			if err != nil {
				return err
			}

			values, err := askValues(c, ask)
			if err != nil {
				return err
			}

			obj, err := c.New(values)
			if err != nil {
				var verr model.ValidationError
				if errors.As(err, &verr) {
					fields := map[string][]string{verr.Property: {verr.Message}}
					fmt.Fprintln(cmd.ErrOrStderr(), ui.ValidationFailed(c.Name(), fields, opts.noColor))
					return &reportedError{err: err}
				}
				return err
			}

			data, err := obj.ToJSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	return cmd
}

func askValues(c *model.Class, ask askFunc) (map[string]any, error) {
	defaults := c.Defaults()
	values := make(map[string]any)

	for _, spec := range c.Properties() {
		if spec.Private {
			continue
		}
		typ := types.Normalize(spec.Type)
		message := fmt.Sprintf("%s (%s)", spec.Name, typ)

		if typ == types.Boolean {
			answer, _ := defaults[spec.Name].(bool)
			prompt := &survey.Confirm{Message: message, Default: answer}
			if err := ask(prompt, &answer); err != nil {
				return nil, err
			}
			values[spec.Name] = answer
			continue
		}

		prompt := &survey.Input{Message: message}
		if v, ok := defaults[spec.Name]; ok {
			prompt.Default = answerText(v)
		}
		validators := []survey.Validator{func(ans any) error {
			_, err := convertAnswer(typ, fmt.Sprint(ans))
			return err
		}}
		if spec.Required {
			validators = append(validators, survey.Required)
		}

		var answer string
		if err := ask(prompt, &answer, survey.WithValidator(survey.ComposeValidators(validators...))); err != nil {
			return nil, err
		}
		v, err := convertAnswer(typ, answer)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", spec.Name, err)
		}
		if ref, ok := c.Registry().Lookup(typ); ok {
			if fields, isMap := v.(map[string]any); isMap {
				if v, err = ref.New(fields); err != nil {
					return nil, fmt.Errorf("%s: %w", spec.Name, err)
				}
			}
		}
		if v != nil {
			values[spec.Name] = v
		}
	}
	return values, nil
}

// convertAnswer turns typed text into a value of typ. Blank text yields nil.
func convertAnswer(typ, text string) (any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	switch typ {
	case types.String:
		return text, nil
	case types.Integer, types.Double, types.Date:
		v, ok := types.AdjusterFor(typ)(text)
		if !ok {
			return nil, fmt.Errorf("%q is not a valid %s", text, typ)
		}
		return v, nil
	}

	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		if typ == types.Any {
			return text, nil
		}
		return nil, fmt.Errorf("expected JSON for %s: %w", typ, err)
	}
	return v, nil
}

func answerText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
