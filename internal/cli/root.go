package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mediaup/internal/cli/config"
)

// Execute runs the mediaup command line.
func Execute() error {
	return NewRootCmd().Execute()
}

func NewRootCmd() *cobra.Command {
	cfg := config.NewConfig()

	rootCmd := &cobra.Command{
		Use:   "mediaup",
		Short: "Batch media upload pipeline",
		Long: `Upload batches of media files to blob storage and commit them to a post.

Images are re-encoded, videos get a thumbnail, and every stored file is
registered with the application backend.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfg.ConfigPath != "" {
				if err := os.Setenv(config.ConfigPathEnv, cfg.ConfigPath); err != nil {
					return fmt.Errorf("set config path: %w", err)
				}
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfg.ConfigPath, "config", "c", cfg.ConfigPath,
		"Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVarP(&cfg.ServerAddr, "server", "s", cfg.ServerAddr,
		"Upload server address in format host:port")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newSendCmd(cfg))
	rootCmd.AddCommand(newHelpConfigCmd())

	return rootCmd
}
