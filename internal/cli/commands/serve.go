package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/modelkit/internal/cli/ui"
	"github.com/conduit-lang/modelkit/internal/introspect"
	"github.com/conduit-lang/modelkit/internal/logging"
	"github.com/conduit-lang/modelkit/internal/watch"
)

func newServeCommand(opts *options) *cobra.Command {
	var (
		port      int
		host      string
		watchDefs bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the loaded classes over HTTP",
		Long: `Serve the loaded classes over a read-only JSON API:

  GET  /classes                  list classes
  GET  /classes/{name}           describe one class
  POST /classes/{name}/validate  validate a JSON object

With --watch, definition files are reloaded when they change. A reload that
fails keeps the previous classes.`,
		Example: `  modelkit serve --port 8080
  modelkit serve --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				opts.cfg.Server.Port = port
			}
			if cmd.Flags().Changed("host") {
				opts.cfg.Server.Host = host
			}

			r, err := opts.mustLoadRegistry(cmd)
			if err != nil {
				return err
			}
			handler := introspect.NewHandler(r)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if watchDefs {
				fw, err := watchDefinitions(opts, handler)
				if err != nil {
					return err
				}
				defer fw.Stop()
			}

			addr := opts.cfg.Server.Addr()
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Serving %d classes on http://%s\n", len(classNames(r)), addr)
			return introspect.Serve(ctx, addr, handler)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVar(&host, "host", "", "Host to bind (default from config)")
	cmd.Flags().BoolVarP(&watchDefs, "watch", "w", false, "Reload definition files when they change")
	return cmd
}

// reloader stops the file watcher together with its event stream.
type reloader struct {
	*watch.FileWatcher
	events *watch.ReloadServer
}

func (r *reloader) Stop() error {
	err := r.FileWatcher.Stop()
	r.events.Close()
	return err
}

// watchDefinitions reloads the served registry whenever a definition file
// changes.
func watchDefinitions(opts *options, handler *introspect.Handler) (*reloader, error) {
	files, err := opts.definitionFiles()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("--watch needs definition files")
	}

	events := watch.NewReloadServer()
	handler.Handle("/events", events)

	fw, err := watch.New(files, opts.cfg.Watch.Debounce, func(ctx context.Context, changed []string) error {
		r, err := opts.loadRegistry()
		if err != nil {
			fmt.Fprintln(os.Stderr, ui.Warning(fmt.Sprintf("reload failed, keeping previous classes: %v", err), opts.noColor))
			events.NotifyError(changed, err)
			return err
		}
		handler.SetRegistry(r)
		events.NotifyReload(changed, r.Count()-1)
		logging.L().Info("definitions reloaded",
			zap.Strings("changed", changed),
			zap.Int("classes", r.Count()-1),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := fw.Start(); err != nil {
		events.Close()
		return nil, err
	}
	return &reloader{FileWatcher: fw, events: events}, nil
}
