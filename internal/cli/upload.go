package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"mediaup/internal/modes"
	"mediaup/internal/upload"
	"mediaup/pkg/config"
)

// batchFlags are shared by the upload and send commands.
type batchFlags struct {
	postID     string
	credential string
	itemsPath  string
}

func (f *batchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.postID, "post-id", "", "Post the files are attached to")
	cmd.Flags().StringVar(&f.credential, "credential", os.Getenv("MEDIAUP_CREDENTIAL"),
		"Pre-signed storage query string (defaults to $MEDIAUP_CREDENTIAL)")
	cmd.Flags().StringVarP(&f.itemsPath, "items", "i", "-", "JSON file holding the items array, - for stdin")
}

func (f *batchFlags) readItems(cmd *cobra.Command) ([]byte, error) {
	if f.itemsPath == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(f.itemsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}
	return data, nil
}

func newUploadCmd() *cobra.Command {
	flags := &batchFlags{}

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Run one batch in this process",
		Long: `Run one batch locally against the configured storage and commit endpoints
and print the completion report as JSON.

Examples:
  mediaup upload --post-id 42 --credential "sv=...&sig=..." --items batch.json
  cat batch.json | mediaup upload --post-id 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, flags)
		},
	}
	flags.register(cmd)

	return cmd
}

func runUpload(cmd *cobra.Command, flags *batchFlags) error {
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	// stdout carries the report
	if cfg.Logging.Output == "" || strings.EqualFold(cfg.Logging.Output, "stdout") {
		cfg.Logging.Output = "stderr"
	}

	log, closeLog, err := modes.SetupLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = closeLog() }()

	items, err := flags.readItems(cmd)
	if err != nil {
		return err
	}

	svc, err := upload.NewService(cfg,
		upload.WithLogger(log),
		upload.WithRegisterer(prometheus.NewRegistry()),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := svc.UploadBatch(ctx, flags.postID, flags.credential, items)
	if err != nil {
		return err
	}
	return printReport(cmd, report)
}

func printReport(cmd *cobra.Command, report any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
