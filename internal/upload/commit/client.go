package commit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"mediaup/pkg/logger"
)

// Record is the commit body. The key set is fixed by the backend.
type Record struct {
	URL          string `json:"URL"`
	OriginalName string `json:"originalname"`
	FileMime     string `json:"filemime"`
}

type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("commit rejected with status %d", e.StatusCode)
}

// Client posts commit records linking stored blobs to a post.
type Client struct {
	endpoint string
	client   *http.Client
	logger   *logger.Logger
}

func NewClient(endpoint string, timeout time.Duration, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Global()
	}
	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   log.WithField("component", "commit-client"),
	}
}

// Commit registers blobURL under postID. The response body is ignored.
func (c *Client) Commit(ctx context.Context, postID, blobURL, originalName, mime string) error {
	endpoint, err := c.endpointFor(postID)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(Record{URL: blobURL, OriginalName: originalName, FileMime: mime}); err != nil {
		return fmt.Errorf("encode commit record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return fmt.Errorf("build commit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Close = true

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("commit transport failure", "postId", postID, "url", blobURL, "error", err)
		return fmt.Errorf("commit request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("commit rejected", "postId", postID, "url", blobURL, "status", resp.StatusCode)
		return &StatusError{StatusCode: resp.StatusCode}
	}

	c.logger.Debug("commit accepted", "postId", postID, "url", blobURL, "status", resp.StatusCode)
	return nil
}

func (c *Client) endpointFor(postID string) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse commit endpoint: %w", err)
	}
	q := u.Query()
	q.Set("postid", postID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
