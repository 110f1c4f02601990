package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediaup/pkg/config"
)

func newHelpConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config-help",
		Short: "Show the configuration file format",
		Long:  "Print the built-in defaults as a config.yaml and the environment variables that override them",
		Args:  cobra.NoArgs,
		RunE:  runConfigHelp,
	}

	return cmd
}

func runConfigHelp(cmd *cobra.Command, args []string) error {
	defaults := config.DefaultConfig
	data, err := defaults.ToYAML()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "mediaup configuration")
	fmt.Fprintln(out, "=====================")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Searched in order: $MEDIAUP_CONFIG_PATH, ./config.yaml, ./config/config.yaml, /etc/mediaup/config.yaml")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Defaults:")
	fmt.Fprintln(out, "---------")
	fmt.Fprint(out, string(data))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Environment overrides:")
	fmt.Fprintln(out, "----------------------")
	for _, line := range []string{
		"MEDIAUP_STORAGE_BASE_URL   MEDIAUP_STORAGE_TIMEOUT",
		"MEDIAUP_COMMIT_URL         MEDIAUP_COMMIT_TIMEOUT",
		"MEDIAUP_MAX_WORKERS",
		"MEDIAUP_FFMPEG_PATH        MEDIAUP_TEMP_DIR",
		"MEDIAUP_IMAGE_FORMAT       MEDIAUP_THUMBNAIL_FORMAT   MEDIAUP_QUALITY",
		"MEDIAUP_GRPC_ADDRESS       MEDIAUP_HTTP_ADDRESS",
		"MEDIAUP_GRPC_MAX_RECV_MSG_SIZE   MEDIAUP_GRPC_MAX_SEND_MSG_SIZE",
		"LOG_LEVEL  LOG_FORMAT  LOG_OUTPUT",
	} {
		fmt.Fprintln(out, "  "+line)
	}
	return nil
}
