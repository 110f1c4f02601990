package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mediaup/internal/cli/config"
	"mediaup/pkg/client"
)

func newSendCmd(cfg *config.Config) *cobra.Command {
	flags := &batchFlags{}
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one batch to a running upload server",
		Long: `Send one batch to the server given by --server and print its report.

Examples:
  mediaup send --post-id 42 --credential "sv=...&sig=..." --items batch.json
  mediaup -s uploads.internal:50061 send --post-id 42 -i batch.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := flags.readItems(cmd)
			if err != nil {
				return err
			}

			uploadClient, err := client.NewUploadClient(cfg.ServerAddr)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}
			defer uploadClient.Close()

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			report, err := uploadClient.UploadFiles(ctx, flags.postID, flags.credential, items)
			if err != nil {
				return fmt.Errorf("failed to upload files: %v", err)
			}
			return printReport(cmd, report)
		},
	}
	flags.register(cmd)
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "How long to wait for the batch to finish")

	return cmd
}
