package commands

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/modelkit/internal/cli/config"
	"github.com/conduit-lang/modelkit/internal/cli/ui"
	"github.com/conduit-lang/modelkit/internal/logging"
	"github.com/conduit-lang/modelkit/internal/model"
	"github.com/conduit-lang/modelkit/internal/schemafile"
	"github.com/conduit-lang/modelkit/internal/utils"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// reportedError is returned by commands that already printed a formatted
// message; Execute only propagates it.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(format string, args ...any) error {
	return &reportedError{err: fmt.Errorf(format, args...)}
}

// options holds the global flags and the state they resolve to.
type options struct {
	configPath string
	files      []string
	logLevel   string
	noColor    bool

	cfg     *config.Config
	restore func()
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	return newRootCommand(survey.AskOne)
}

func newRootCommand(ask askFunc) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "modelkit",
		Short: "Declarative model classes with typed properties and events",
		Long: color.CyanString(`modelkit - declarative model classes

modelkit loads class definitions from YAML files and lets you inspect
them, validate data against them and serve them over HTTP.

Definition files are listed under 'definitions' in modelkit.yaml or passed
with --file.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.restore != nil {
				opts.restore()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Config file (default: ./modelkit.yaml)")
	flags.StringSliceVarP(&opts.files, "file", "f", nil, "Definition file to load (repeatable)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	// Add subcommands
	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newDescribeCommand(opts))
	rootCmd.AddCommand(newValidateCommand(opts))
	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newNewCommand(opts, ask))

	return rootCmd
}

func (o *options) setup(cmd *cobra.Command) error {
	if o.noColor {
		color.NoColor = true
	}

	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.ConfigError(err.Error(), o.noColor))
		return &reportedError{err: err}
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}

	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.restore = logging.SetLogger(logger)
	return nil
}

// definitionFiles returns the --file paths, or the configured ones when no
// flag was given. Directories stand for the definition files inside them.
func (o *options) definitionFiles() ([]string, error) {
	paths := o.cfg.Definitions
	if len(o.files) > 0 {
		paths = o.files
	}
	return utils.ExpandDefinitionPaths(paths)
}

// loadRegistry builds a fresh registry from the configured roles and
// definition files.
func (o *options) loadRegistry() (*model.Registry, error) {
	r := model.NewRegistry()
	o.cfg.Apply(r)

	files, err := o.definitionFiles()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return r, nil
	}
	if _, err := schemafile.NewLoader(r).LoadFiles(files...); err != nil {
		return nil, err
	}
	return r, nil
}

// mustLoadRegistry is loadRegistry for commands, printing load failures.
func (o *options) mustLoadRegistry(cmd *cobra.Command) (*model.Registry, error) {
	r, err := o.loadRegistry()
	if err != nil {
		path := "definitions"
		if files, _ := o.definitionFiles(); len(files) == 1 {
			path = files[0]
		}
		fmt.Fprintln(cmd.ErrOrStderr(), ui.DefinitionError(path, err, o.noColor))
		return nil, &reportedError{err: err}
	}
	return r, nil
}

// lookupClass finds a user class, printing suggestions when it is unknown.
func (o *options) lookupClass(cmd *cobra.Command, r *model.Registry, name string) (*model.Class, error) {
	c, ok := r.Lookup(name)
	if ok && c.Parent() != nil {
		return c, nil
	}
	fmt.Fprintln(cmd.ErrOrStderr(), ui.ClassNotFoundError(name, classNames(r), o.noColor))
	return nil, reported("class %q not found", name)
}

func classNames(r *model.Registry) []string {
	var names []string
	for _, name := range r.Names() {
		if name != model.BaseClassName {
			names = append(names, name)
		}
	}
	return names
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the modelkit version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			// Set GoVersion to actual runtime if not set at build time
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			out := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)

			titleColor.Fprint(out, "modelkit version: ")
			fmt.Fprintln(out, Version)

			titleColor.Fprint(out, "Git commit: ")
			fmt.Fprintln(out, GitCommit)

			titleColor.Fprint(out, "Build date: ")
			fmt.Fprintln(out, BuildDate)

			titleColor.Fprint(out, "Go version: ")
			fmt.Fprintln(out, goVer)
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		var done *reportedError
		if !errors.As(err, &done) {
			errorColor := color.New(color.FgRed, color.Bold)
			errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return err
	}
	return nil
}
