package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cases := map[string]MediaKind{
		"image/jpeg":               KindImage,
		"image/png":                KindImage,
		"video/mp4":                KindVideo,
		"video/quicktime":          KindVideo,
		"application/pdf":          KindOther,
		"text/plain":               KindOther,
		"":                         KindOther,
		"application/image+binary": KindOther,
	}
	for mime, want := range cases {
		assert.Equal(t, want, KindOf(mime), "mime %q", mime)
	}
}

func TestBlobTargetURL(t *testing.T) {
	target := BlobTarget{BaseURL: DefaultBaseURL, BlobName: "img1", Credential: "sv=2022&sig=abc%2B"}

	assert.Equal(t, "https://arabicschool.blob.core.windows.net/img1?sv=2022&sig=abc%2B", target.URL())
	assert.Equal(t, "https://arabicschool.blob.core.windows.net/img1", target.PublicURL())
}

func TestItemValidate(t *testing.T) {
	assert.NoError(t, Item{BlobName: "a", Mime: "image/png"}.Validate())
	assert.NoError(t, Item{BlobName: "v", Mime: "video/mp4", ThumbnailBlobName: "v.thumb"}.Validate())

	err := Item{BlobName: "v", Mime: "video/mp4"}.Validate()
	assert.True(t, errors.Is(err, ErrMalformedItem))

	err = Item{Mime: "text/plain"}.Validate()
	assert.True(t, errors.Is(err, ErrMalformedItem))

	descErr := errors.New("bad descriptor")
	assert.Equal(t, descErr, Item{BlobName: "a", DescriptorErr: descErr}.Validate())
}

func TestBatchResultCounts(t *testing.T) {
	res := BatchResult{PerItem: []ItemOutcome{
		Succeeded("u1"),
		Failed(StageCommit, errors.New("x"), false),
		Succeeded("u3"),
	}}
	ok, failed := res.Counts()
	assert.Equal(t, 2, ok)
	assert.Equal(t, 1, failed)
}
