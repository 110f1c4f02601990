package domain

import (
	"errors"
	"strings"
)

const (
	// DefaultBaseURL is the storage account every blob name is resolved against.
	DefaultBaseURL = "https://arabicschool.blob.core.windows.net/"
	// DefaultCommitURL is the backend endpoint that links a stored blob to a post.
	DefaultCommitURL = "https://personal-fjlz3d21.outsystemscloud.com/uploads/rest/a/commit"

	// CommitFileMime is sent as filemime on every commit regardless of the item's mimetype.
	CommitFileMime = "application/octet-stream"
)

var ErrMalformedItem = errors.New("malformed item descriptor")

type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
	KindOther MediaKind = "other"
)

// KindOf classifies a declared mimetype by its prefix.
func KindOf(mime string) MediaKind {
	switch {
	case strings.HasPrefix(mime, "image"):
		return KindImage
	case strings.HasPrefix(mime, "video"):
		return KindVideo
	default:
		return KindOther
	}
}

type Item struct {
	BlobName          string // Blob name on storage ("filename")
	OriginalName      string // Human-visible name sent with the commit
	Mime              string // Declared mimetype, used only for classification
	Payload           []byte // Decoded payload
	ThumbnailBlobName string // Required for videos, ignored otherwise

	// DescriptorErr is set when the descriptor could not be parsed; such an
	// item is reported as failed without any work being started.
	DescriptorErr error
}

func (i Item) Kind() MediaKind {
	return KindOf(i.Mime)
}

// Validate checks the fields the pipeline cannot run without.
func (i Item) Validate() error {
	if i.DescriptorErr != nil {
		return i.DescriptorErr
	}
	if i.BlobName == "" {
		return errors.Join(ErrMalformedItem, errors.New("filename is empty"))
	}
	if i.Kind() == KindVideo && i.ThumbnailBlobName == "" {
		return errors.Join(ErrMalformedItem, errors.New("thumbnail is required for video items"))
	}
	return nil
}

// BlobTarget addresses one blob; the credential is an opaque pre-signed query string.
type BlobTarget struct {
	BaseURL    string
	BlobName   string
	Credential string
}

// URL is the full request URL including the credential.
func (t BlobTarget) URL() string {
	return t.BaseURL + t.BlobName + "?" + t.Credential
}

// PublicURL is the blob address without the credential, as committed to the backend.
func (t BlobTarget) PublicURL() string {
	return t.BaseURL + t.BlobName
}

type BatchRequest struct {
	PostID     string
	Credential string
	Items      []Item
}
