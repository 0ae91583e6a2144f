package cli

import (
	"errors"
	"fmt"
	"slices"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/idelchi/topdirs/internal/server"
	"github.com/idelchi/topdirs/internal/topdirs"
)

// serveCommand starts the HTTP API. It shares the engine flags of the root
// command through opts.
func serveCommand(opts *options) *cobra.Command {
	cfg := server.Config{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve directory rankings over HTTP",
		Long: heredoc.Doc(`
			Serve directory rankings over HTTP.

			Endpoints:
			  GET /api/healthz
			  GET /api/topdirs?path=<dir>&top=<n>

			Rankings are cached per path and limit for --cache-ttl.
			Concurrent requests for the same path share one analysis.
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !slices.Contains(allowedEngines, opts.Engine) {
				return fmt.Errorf("invalid engine %q: must be one of %v", opts.Engine, allowedEngines)
			}

			if opts.Workers < 0 {
				return errors.New("workers cannot be negative")
			}

			cfg.Options = opts.Options

			return server.New(cfg).Run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.SortFlags = false

	flags.StringVar(&cfg.Addr, "addr", "localhost:8080", "Listen address")
	flags.DurationVar(&cfg.CacheTTL, "cache-ttl", server.DefaultCacheTTL, "How long rankings are cached (0 disables)")
	flags.StringVar(&opts.Engine, "engine", topdirs.EngineForkJoin, "Aggregation engine: forkjoin or walk")
	flags.IntVarP(&opts.Workers, "workers", "w", 0, "Concurrent directory listings (0=number of CPUs)")
	flags.BoolVarP(&opts.FollowSymlinks, "follow", "L", true, "Follow symbolic links, except those leading back into a parent")

	return cmd
}
