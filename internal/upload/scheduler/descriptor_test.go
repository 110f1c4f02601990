package scheduler

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediaup/internal/upload/domain"
	perrors "mediaup/pkg/errors"
)

func TestParseItems_Valid(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("0123456789"))
	input := `[
		{"filename":"img1","originalname":"a.jpg","mimetype":"image/jpeg","binarydata":"` + payload + `","thumbnail":""},
		{"filename":"vid.mp4","originalname":"clip.mp4","mimetype":"video/mp4","binarydata":"` + payload + `","thumbnail":"vid.thumb"},
		{"filename":"doc","originalname":"doc.pdf","mimetype":"application/pdf","binarydata":"` + payload + `"}
	]`

	items, err := ParseItems([]byte(input))
	require.NoError(t, err)
	require.Len(t, items, 3)

	for _, it := range items {
		assert.NoError(t, it.DescriptorErr)
		assert.Equal(t, []byte("0123456789"), it.Payload)
	}
	assert.Equal(t, domain.KindImage, items[0].Kind())
	assert.Equal(t, "vid.thumb", items[1].ThumbnailBlobName)
	assert.Equal(t, domain.KindOther, items[2].Kind())
	assert.Equal(t, "doc.pdf", items[2].OriginalName)
}

func TestParseItems_NotASequence(t *testing.T) {
	for _, input := range []string{``, `null`, `{"filename":"x"}`, `"items"`, `[1,2`} {
		_, err := ParseItems([]byte(input))
		assert.ErrorIs(t, err, perrors.ErrItemsNotSequence, "input %q", input)
	}
}

func TestParseItems_EmptySequence(t *testing.T) {
	items, err := ParseItems([]byte(` [] `))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestParseItems_MalformedElementsKeepTheirSlot(t *testing.T) {
	good := base64.StdEncoding.EncodeToString([]byte("ok"))
	input := `[
		{"filename":"a","originalname":"a","mimetype":"image/png","binarydata":"` + good + `"},
		{"filename":"b","originalname":"b","mimetype":"image/png","binarydata":"***not base64***"},
		{"filename":"c","mimetype":"image/png","binarydata":"` + good + `"},
		{"filename":"d","originalname":"d","mimetype":"video/mp4","binarydata":"` + good + `"},
		{"filename":5,"originalname":"e","mimetype":"text/plain","binarydata":"` + good + `"},
		"just a string"
	]`

	items, err := ParseItems([]byte(input))
	require.NoError(t, err)
	require.Len(t, items, 6)

	assert.NoError(t, items[0].DescriptorErr)
	for i := 1; i < 6; i++ {
		assert.ErrorIs(t, items[i].DescriptorErr, domain.ErrMalformedItem, "item %d", i)
	}
	assert.Contains(t, items[1].DescriptorErr.Error(), "binarydata")
	assert.Contains(t, items[2].DescriptorErr.Error(), "originalname")
	assert.Contains(t, items[3].DescriptorErr.Error(), "thumbnail")
	assert.Equal(t, "b", items[1].BlobName, "parsed fields survive for reporting")
}

func TestDecodePayload(t *testing.T) {
	got, err := decodePayload("aGVs\nbG8=")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	got, err = decodePayload("aGVsbG8")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	got, err = decodePayload("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = decodePayload("%%%%")
	assert.Error(t, err)
}
