package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediaup/pkg/logger"
)

func TestBuildArgs_WebP(t *testing.T) {
	got := buildArgs("/tmp/in", "/tmp/out.webp", Encoding{Format: "webp", Quality: 80}, false)
	want := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", "/tmp/in", "-frames:v", "1",
		"-c:v", "libwebp", "-quality", "80", "-f", "webp",
		"/tmp/out.webp",
	}
	assert.Equal(t, want, got)
}

func TestBuildArgs_VideoSeeksToStart(t *testing.T) {
	got := buildArgs("/tmp/in", "/tmp/out.png", Encoding{Format: "png"}, true)
	want := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-ss", "0",
		"-i", "/tmp/in", "-frames:v", "1",
		"-c:v", "png", "-f", "image2", "-update", "1",
		"/tmp/out.png",
	}
	assert.Equal(t, want, got)
}

func TestEncoderArgs_QualityFallback(t *testing.T) {
	assert.Equal(t, []string{"-c:v", "libwebp", "-quality", "80", "-f", "webp"}, encoderArgs(Encoding{Format: "webp"}))
}

func TestFFmpegCodec_EmptyInput(t *testing.T) {
	codec := NewFFmpegCodec("ffmpeg", t.TempDir(), logger.Discard())
	_, err := codec.Reencode(context.Background(), nil, DefaultEncoding)
	assert.ErrorIs(t, err, ErrCodec)
}

func TestFFmpegCodec_MissingBinary(t *testing.T) {
	codec := NewFFmpegCodec("definitely-not-ffmpeg-binary", t.TempDir(), logger.Discard())
	assert.ErrorIs(t, codec.Available(), ErrCodec)

	_, err := codec.KeyFrame(context.Background(), []byte("video"), DefaultEncoding)
	assert.ErrorIs(t, err, ErrCodec)
}

func requireFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available")
	}
}

func TestFFmpegCodec_ReencodePNG(t *testing.T) {
	requireFFmpeg(t)

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.RGBA{R: 255, A: 255})
	}
	var src bytes.Buffer
	require.NoError(t, png.Encode(&src, img))

	tmp := t.TempDir()
	codec := NewFFmpegCodec("ffmpeg", tmp, logger.Discard())

	out, err := codec.Reencode(context.Background(), src.Bytes(), Encoding{Format: "png"})
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 8, decoded.Bounds().Dx())

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp workdir must be removed")
}

func TestFFmpegCodec_GarbageInputFails(t *testing.T) {
	requireFFmpeg(t)

	tmp := t.TempDir()
	codec := NewFFmpegCodec("ffmpeg", tmp, logger.Discard())

	_, err := codec.Reencode(context.Background(), []byte("this is not an image"), Encoding{Format: "png"})
	assert.ErrorIs(t, err, ErrCodec)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp workdir must be removed on failure")
}
