package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/modelkit/internal/cli/ui"
	"github.com/conduit-lang/modelkit/internal/introspect"
	"github.com/conduit-lang/modelkit/internal/model"
	"github.com/conduit-lang/modelkit/internal/schemafile"
)

func newDescribeCommand(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "describe [class]",
		Short: "List classes or show one class in detail",
		Long: `List the loaded classes, or show the properties, defaults and methods of
one class.

The yaml format writes the definitions back out in the definition file
format.`,
		Example: `  # List all classes
  modelkit describe

  # Show one class
  modelkit describe app.Person

  # Emit JSON for tooling
  modelkit describe app.Person --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "table", "json", "yaml":
			default:
				return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
			}

			r, err := opts.mustLoadRegistry(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				return describeAll(out, r, format, opts.noColor)
			}
			c, err := opts.lookupClass(cmd, r, args[0])
			if err != nil {
				return err
			}
			return describeClass(out, c, format, opts.noColor)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", "table", "Output format: table, json or yaml")
	return cmd
}

func describeAll(w io.Writer, r *model.Registry, format string, noColor bool) error {
	summaries := introspect.Summarize(r)

	switch format {
	case "json":
		return writeJSON(w, summaries)
	case "yaml":
		classes := make([]*model.Class, 0, len(summaries))
		for _, s := range summaries {
			c, _ := r.Lookup(s.Name)
			classes = append(classes, c)
		}
		return writeDefinitions(w, classes)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(w, ui.Warning("No classes loaded. Add definition files with --file or in modelkit.yaml.", noColor))
		return nil
	}

	ui.Header(w, fmt.Sprintf("Classes (%d)", len(summaries)), noColor)
	table := ui.NewTable(w, noColor, "NAME", "PARENT", "ROLE", "PROPERTIES", "METHODS")
	for _, s := range summaries {
		table.AddRow(s.Name, s.Parent, s.Role, strconv.Itoa(s.Properties), strconv.Itoa(s.Methods))
	}
	table.Render()
	return nil
}

func describeClass(w io.Writer, c *model.Class, format string, noColor bool) error {
	info := introspect.Describe(c)

	switch format {
	case "json":
		return writeJSON(w, info)
	case "yaml":
		return writeDefinitions(w, []*model.Class{c})
	}

	ui.Header(w, info.Name, noColor)
	kv := ui.NewKeyValueTable(w, noColor)
	kv.AddRow("Parent", info.Parent)
	kv.AddRow("Ancestors", strings.Join(info.Ancestors, " → "))
	if info.Role != "" {
		kv.AddRow("Role", info.Role)
	}
	kv.Render()
	fmt.Fprintln(w)

	table := ui.NewTable(w, noColor, "PROPERTY", "TYPE", "DEFAULT", "FLAGS")
	for _, p := range info.Properties {
		def := ""
		if v, ok := info.Defaults[p.Name]; ok {
			def = formatValue(v)
		}
		table.AddRow(p.Name, p.Type, def, strings.Join(propertyFlags(p), ", "))
	}
	table.Render()

	if len(info.Methods) > 0 {
		fmt.Fprintln(w)
		ui.Header(w, "Methods", noColor)
		items := make([]string, len(info.Methods))
		for i, m := range info.Methods {
			items[i] = m
			if contains(info.Configured, m) {
				items[i] += " (configured)"
			}
		}
		ui.List(w, items, noColor)
	}
	return nil
}

func propertyFlags(p model.PropertySpec) []string {
	var flags []string
	if p.Required {
		flags = append(flags, "required")
	}
	if p.ReadOnly {
		flags = append(flags, "read-only")
	}
	if p.Private {
		flags = append(flags, "private")
	}
	if p.PrivateSetter {
		flags = append(flags, "private setter")
	}
	if p.AutoAdjust {
		flags = append(flags, "auto adjust")
	}
	return flags
}

func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeDefinitions(w io.Writer, classes []*model.Class) error {
	data, err := schemafile.Encode(classes)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
