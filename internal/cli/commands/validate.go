package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/modelkit/internal/cli/ui"
	"github.com/conduit-lang/modelkit/internal/model"
)

func newValidateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <class> <json|@file>",
		Short: "Check a JSON object against a class",
		Long: `Check a JSON object against a class without creating an instance.

Every property is checked: undeclared keys, missing required values and
values of the wrong type are all reported. The object is given inline or,
prefixed with @, as a file path.`,
		Example: `  modelkit validate app.Person '{"name":"Ann","age":30}'
  modelkit validate app.Person @person.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := readObject(args[1])
			if err != nil {
				return err
			}

			r, err := opts.mustLoadRegistry(cmd)
			if err != nil {
				return err
			}
			c, err := opts.lookupClass(cmd, r, args[0])
			if err != nil {
				return err
			}

			err = c.Validate(values)
			var verrs *model.ValidationErrors
			switch {
			case err == nil:
				ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("Values are valid for %s.", c.Name()), opts.noColor)
				return nil
			case errors.As(err, &verrs):
				fmt.Fprintln(cmd.ErrOrStderr(), ui.ValidationFailed(c.Name(), verrs.Fields, opts.noColor))
				return &reportedError{err: err}
			default:
				return err
			}
		},
	}
}

// readObject decodes arg as a JSON object, reading it from a file when arg
// starts with @.
func readObject(arg string) (map[string]any, error) {
	data := []byte(arg)
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("invalid JSON object: %w", err)
	}
	if values == nil {
		return nil, fmt.Errorf("invalid JSON object: got null")
	}
	return values, nil
}
