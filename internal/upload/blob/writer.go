package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"mediaup/internal/upload/domain"
	"mediaup/pkg/logger"
)

// Class tells whether a failed put is worth retrying by the caller.
type Class string

const (
	ClassPermanent Class = "permanent"
	ClassTransient Class = "transient"
)

// StatusError is returned for any non-2xx response from storage.
type StatusError struct {
	StatusCode int
	Class      Class
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("blob put failed with status %d (%s)", e.StatusCode, e.Class)
}

// TransportError wraps failures where no usable response was received.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("blob put transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ClassOf recovers the failure class of an error returned by Put.
func ClassOf(err error) Class {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Class
	}
	var te *TransportError
	if errors.As(err, &te) {
		return ClassTransient
	}
	return ClassPermanent
}

func classify(status int) Class {
	if status >= 500 {
		return ClassTransient
	}
	return ClassPermanent
}

// Observer is notified around every request; it may be nil.
type Observer interface {
	PutStarted()
	PutFinished(size int, duration time.Duration, err error)
}

// Writer uploads whole buffers to blob storage, one request per call.
type Writer struct {
	client   *http.Client
	observer Observer
	logger   *logger.Logger
}

// NewWriter creates a writer. A zero timeout leaves the transport default in place.
func NewWriter(timeout time.Duration, observer Observer, log *logger.Logger) *Writer {
	if log == nil {
		log = logger.Global()
	}
	return &Writer{
		client:   &http.Client{Timeout: timeout},
		observer: observer,
		logger:   log.WithField("component", "blob-writer"),
	}
}

// WithClient swaps the HTTP client, keeping everything else.
func (w *Writer) WithClient(client *http.Client) *Writer {
	cp := *w
	cp.client = client
	return &cp
}

// Put stores body under the target's URL with a single PUT.
func (w *Writer) Put(ctx context.Context, target domain.BlobTarget, body []byte) (err error) {
	start := time.Now()
	if w.observer != nil {
		w.observer.PutStarted()
		defer func() { w.observer.PutFinished(len(body), time.Since(start), err) }()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target.URL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build blob request: %w", redact(err, target))
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.ContentLength = int64(len(body))
	req.Close = true

	resp, err := w.client.Do(req)
	if err != nil {
		err = redact(err, target)
		w.logger.Warn("blob put transport failure", "blob", target.BlobName, "error", err)
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{StatusCode: resp.StatusCode, Class: classify(resp.StatusCode)}
		w.logger.Warn("blob put rejected", "blob", target.BlobName, "status", resp.StatusCode, "class", se.Class)
		return se
	}

	w.logger.Debug("blob stored", "blob", target.BlobName, "size", len(body), "status", resp.StatusCode, "duration", time.Since(start))
	return nil
}

// redact drops the credential from URLs that net/http puts into its errors.
func redact(err error, target domain.BlobTarget) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = target.PublicURL()
	}
	return err
}
