// Package serve provides the serve command for catalogcore
package serve

import (
	"github.com/spf13/cobra"

	"github.com/mantamatcher/catalogcore/cmd/cmdutil"
	"github.com/mantamatcher/catalogcore/internal/api"
	"github.com/mantamatcher/catalogcore/internal/runtime"
)

// Command creates and returns the serve command
func Command(open cmdutil.Opener) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the consolidation API over HTTP",
		Long:  `Serve starts the HTTP API for merging catalog entries, choosing best photos and reading diagnostics. It stops gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdutil.WithServices(open, func(s *runtime.Services) error {
				if listen != "" {
					s.Settings.WebServer.Listen = listen
				}
				server, err := api.New(s.Settings, s.Engine,
					api.WithLogger(s.Logs.Module("api")),
					api.WithMetrics(s.Metrics))
				if err != nil {
					return err
				}
				return server.StartWithGracefulShutdown(cmd.Context())
			})
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Override the listen address, e.g. :8080")

	return cmd
}
