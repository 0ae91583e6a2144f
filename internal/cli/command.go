package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/containerd/log"
	"github.com/spf13/cobra"

	"github.com/idelchi/topdirs/internal/integration"
	"github.com/idelchi/topdirs/internal/topdirs"
)

// CLI represents the command-line interface.
type CLI struct {
	version string
}

// New creates a new CLI instance with the given version.
func New(version string) CLI {
	return CLI{version: version}
}

// options holds the engine options plus CLI-only settings.
type options struct {
	topdirs.Options

	// Output represents output format (table, json or paths).
	Output string
	// Debug indicates whether debug output is enabled.
	Debug bool
	// Version indicates whether to show version and exit.
	Version bool
	// Integration indicates whether to output integration script.
	Integration bool
}

//nolint:gochecknoglobals // Config constant
var (
	allowedOutputs = []string{"table", "json", "paths"}
	allowedEngines = []string{topdirs.EngineForkJoin, topdirs.EngineWalk}
)

// configureLogging routes log output to w at info, or debug, level.
func configureLogging(debug bool, w io.Writer) error {
	level := "info"
	if debug {
		level = "debug"
	}

	if err := log.SetLevel(level); err != nil {
		return fmt.Errorf("setting log level: %w", err)
	}

	log.L.Logger.SetOutput(w)

	return nil
}

// Execute runs the CLI with the process arguments.
func (c CLI) Execute(ctx context.Context) error {
	return c.Command().ExecuteContext(ctx)
}

// Command builds the root command.
func (c CLI) Command() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "topdirs [flags] [path]",
		Short: "Report the largest directories below a path",
		Long: heredoc.Doc(`
			topdirs computes the recursive size of every directory below a path
			and reports the largest ones.

			Positional Arguments:
			  path                   Directory to analyze. Defaults to current directory if not specified.

			Directories that cannot be read are counted as empty. Directories with
			exactly the same total size are reported once.

			Symbolic links are followed unless '--follow=false' is given. A link
			that leads back into one of its own parent directories is skipped.

			The '-i' flag prints a zsh function that pipes the result into 'fzf'
			and changes into the selected directory.
		`),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return configureLogging(opts.Debug, cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Version {
				fmt.Fprintln(cmd.OutOrStdout(), c.version)

				return nil
			}

			if opts.Integration {
				rendered, err := integration.Render()
				if err != nil {
					return fmt.Errorf("rendering integration script: %w", err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), rendered)

				return nil
			}

			if err := opts.validate(); err != nil {
				return err
			}

			if len(args) == 0 {
				opts.Path = "."
			} else {
				opts.Path = args[0]
			}

			return logic(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.SortFlags = false

	flags.IntVarP(&opts.TopN, "top", "t", topdirs.DefaultTopN, "Number of largest directories to display")
	flags.StringVarP(&opts.Output, "output", "o", "table", "Output format: table, json or paths")
	flags.StringVar(&opts.Engine, "engine", topdirs.EngineForkJoin, "Aggregation engine: forkjoin or walk")
	flags.IntVarP(&opts.Workers, "workers", "w", 0, "Concurrent directory listings (0=number of CPUs)")
	flags.BoolVarP(&opts.FollowSymlinks, "follow", "L", true, "Follow symbolic links, except those leading back into a parent")
	flags.BoolVarP(&opts.Version, "version", "v", false, "Show version and exit")
	flags.BoolVarP(&opts.Integration, "init", "i", false, "Output init script for shell usage")

	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "Enable debug output")

	cmd.AddCommand(serveCommand(&opts))

	return cmd
}

func (o options) validate() error {
	if !slices.Contains(allowedOutputs, o.Output) {
		return fmt.Errorf("invalid output format %q: must be one of %v", o.Output, allowedOutputs)
	}

	if !slices.Contains(allowedEngines, o.Engine) {
		return fmt.Errorf("invalid engine %q: must be one of %v", o.Engine, allowedEngines)
	}

	if o.TopN <= 0 {
		return errors.New("top must be positive")
	}

	if o.Workers < 0 {
		return errors.New("workers cannot be negative")
	}

	return nil
}
