package media

import (
	"context"
	"errors"
	"fmt"

	"mediaup/internal/upload/domain"
)

// ErrCodec marks failures of the underlying image/video codec.
var ErrCodec = errors.New("codec failure")

// Encoding is the still-image format produced by the codec.
type Encoding struct {
	Format  string // "webp" or "png"
	Quality int    // 1..100, ignored by lossless formats
}

// DefaultEncoding is WebP at quality 80 for both images and thumbnails.
var DefaultEncoding = Encoding{Format: "webp", Quality: 80}

// Codec is the black-box media toolbox the transformer relies on.
type Codec interface {
	// Reencode decodes a raster image and encodes it again.
	Reencode(ctx context.Context, src []byte, enc Encoding) ([]byte, error)
	// KeyFrame extracts the frame at timestamp zero of a video and encodes it.
	KeyFrame(ctx context.Context, src []byte, enc Encoding) ([]byte, error)
}

// Output is what gets uploaded for one item.
type Output struct {
	Primary   []byte
	Thumbnail []byte // nil unless the item is a video
}

func (o Output) HasThumbnail() bool {
	return o.Thumbnail != nil
}

type Transformer struct {
	codec     Codec
	image     Encoding
	thumbnail Encoding
}

func NewTransformer(codec Codec, image, thumbnail Encoding) *Transformer {
	return &Transformer{codec: codec, image: image, thumbnail: thumbnail}
}

// Transform turns an item's payload into the buffers to upload.
func (t *Transformer) Transform(ctx context.Context, item domain.Item) (Output, error) {
	switch item.Kind() {
	case domain.KindImage:
		out, err := t.codec.Reencode(ctx, item.Payload, t.image)
		if err != nil {
			return Output{}, fmt.Errorf("reencode image %s: %w", item.BlobName, err)
		}
		if len(out) == 0 {
			return Output{}, fmt.Errorf("reencode image %s: %w: empty output", item.BlobName, ErrCodec)
		}
		return Output{Primary: out}, nil

	case domain.KindVideo:
		thumb, err := t.codec.KeyFrame(ctx, item.Payload, t.thumbnail)
		if err != nil {
			return Output{}, fmt.Errorf("extract thumbnail for %s: %w", item.BlobName, err)
		}
		if len(thumb) == 0 {
			return Output{}, fmt.Errorf("extract thumbnail for %s: %w: empty output", item.BlobName, ErrCodec)
		}
		return Output{Primary: item.Payload, Thumbnail: thumb}, nil

	default:
		return Output{Primary: item.Payload}, nil
	}
}
