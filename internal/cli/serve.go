package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/simheat/internal/server"
	"github.com/matzehuels/simheat/pkg/cache"
	"github.com/matzehuels/simheat/pkg/pipeline"
)

const defaultAddr = ":8080"

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve heatmap renders over HTTP",
		Long: `Start an HTTP server rendering heatmaps on demand.

  GET  /healthz     liveness
  GET  /colormaps   available colour maps
  POST /render      {"matrix": "<tsv>", "format": "svg", ...} -> image

Renders share the configured cache under a "server:" key prefix.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cc, err := c.newCache(ctx, noCache)
			if err != nil {
				return err
			}
			runner := pipeline.NewRunner(cc, cache.NewScopedKeyer(nil, "server:"), c.Logger)
			defer runner.Close()

			return server.New(runner, c.Logger).ListenAndServe(ctx, firstNonEmpty(addr, c.Config.Server.Addr, defaultAddr))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, else "+defaultAddr+")")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}
