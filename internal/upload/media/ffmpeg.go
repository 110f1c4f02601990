package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"mediaup/pkg/logger"
)

// FFmpegCodec implements Codec by shelling out to an ffmpeg binary.
// Inputs and outputs go through a per-call temp directory that is always removed.
type FFmpegCodec struct {
	bin     string
	tempDir string
	logger  *logger.Logger
}

var _ Codec = (*FFmpegCodec)(nil)

func NewFFmpegCodec(bin, tempDir string, log *logger.Logger) *FFmpegCodec {
	if strings.TrimSpace(bin) == "" {
		bin = "ffmpeg"
	}
	if log == nil {
		log = logger.Global()
	}
	return &FFmpegCodec{
		bin:     bin,
		tempDir: tempDir,
		logger:  log.WithField("component", "ffmpeg-codec"),
	}
}

// Available reports whether the configured binary can be found.
func (c *FFmpegCodec) Available() error {
	if _, err := exec.LookPath(c.bin); err != nil {
		return fmt.Errorf("%w: ffmpeg binary %q not found in PATH", ErrCodec, c.bin)
	}
	return nil
}

func (c *FFmpegCodec) Reencode(ctx context.Context, src []byte, enc Encoding) ([]byte, error) {
	return c.run(ctx, "image", src, enc, false)
}

func (c *FFmpegCodec) KeyFrame(ctx context.Context, src []byte, enc Encoding) ([]byte, error) {
	return c.run(ctx, "video", src, enc, true)
}

func (c *FFmpegCodec) run(ctx context.Context, kind string, src []byte, enc Encoding, seekStart bool) ([]byte, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("%w: empty %s input", ErrCodec, kind)
	}

	workdir, err := os.MkdirTemp(c.tempDir, "mediaup-"+kind+"-")
	if err != nil {
		return nil, fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workdir)

	input := filepath.Join(workdir, "input")
	if err := os.WriteFile(input, src, 0o600); err != nil {
		return nil, fmt.Errorf("write %s input: %w", kind, err)
	}

	output := filepath.Join(workdir, "output."+enc.Format)
	args := buildArgs(input, output, enc, seekStart)

	cmd := exec.CommandContext(ctx, c.bin, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		c.logger.Debug("ffmpeg failed", "kind", kind, "error", err, "output", strings.TrimSpace(string(out)))
		return nil, fmt.Errorf("%w: ffmpeg %s: %v: %s", ErrCodec, kind, err, strings.TrimSpace(string(out)))
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s output: %v", ErrCodec, kind, err)
	}
	return data, nil
}

func buildArgs(input, output string, enc Encoding, seekStart bool) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-y"}
	if seekStart {
		args = append(args, "-ss", "0")
	}
	args = append(args, "-i", input, "-frames:v", "1")
	args = append(args, encoderArgs(enc)...)
	return append(args, output)
}

func encoderArgs(enc Encoding) []string {
	switch enc.Format {
	case "png":
		return []string{"-c:v", "png", "-f", "image2", "-update", "1"}
	default:
		quality := enc.Quality
		if quality <= 0 || quality > 100 {
			quality = DefaultEncoding.Quality
		}
		return []string{"-c:v", "libwebp", "-quality", strconv.Itoa(quality), "-f", "webp"}
	}
}
