package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediaup/internal/modes"
	"mediaup/pkg/config"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the upload server",
		Long: `Run the gRPC upload service and the HTTP adapter until interrupted.

The HTTP adapter also serves /healthz and /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if path != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "using configuration %s\n", path)
			}
			return modes.RunServer(cfg)
		},
	}
}
