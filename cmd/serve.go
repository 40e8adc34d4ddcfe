package cmd

import (
	"claudebridge/internal/claude"
	"claudebridge/internal/server"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Run the HTTP server exposing POST /claude and GET /health.

Every flag can also be set in the configuration file or through a
CLAUDEBRIDGE_* environment variable, e.g. CLAUDEBRIDGE_SERVER_PORT.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(claude.NewCLI(cfg.Claude), cfg.Server)
			return srv.ListenAndServe(ctx, cfg.Server.Addr(), cfg.Server.ShutdownTimeout)
		},
	}

	serveCmd.Flags().String("host", "", "Address to listen on (default 0.0.0.0)")
	serveCmd.Flags().Int("port", 0, "Port to listen on (default 8080)")
	serveCmd.Flags().String("binary", "", "Path to the claude binary (default \"claude\" from PATH)")
	serveCmd.Flags().String("work-dir", "", "Default working directory for the CLI (default ~/Projects)")
	serveCmd.Flags().Duration("timeout", 0, "Maximum run time of one CLI invocation (default 2m0s)")

	return serveCmd
}
