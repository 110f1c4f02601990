package pipeline

import (
	"context"
	"errors"
	"time"

	"mediaup/internal/upload/blob"
	"mediaup/internal/upload/commit"
	"mediaup/internal/upload/domain"
	"mediaup/internal/upload/media"
	"mediaup/pkg/logger"
)

type Transformer interface {
	Transform(ctx context.Context, item domain.Item) (media.Output, error)
}

type BlobPutter interface {
	Put(ctx context.Context, target domain.BlobTarget, body []byte) error
}

type Committer interface {
	Commit(ctx context.Context, postID, blobURL, originalName, mime string) error
}

// Observer receives item lifecycle events. Implementations must be safe for
// concurrent use since several items run at once.
type Observer interface {
	StageFinished(stage domain.Stage, duration time.Duration, err error)
	ItemFinished(req Request, item domain.Item, outcome domain.ItemOutcome)
}

// Request carries the batch-wide values an item needs.
type Request struct {
	PostID     string
	Credential string
	Index      int
}

// State is a position in the per-item state machine.
type State int

const (
	StateNew State = iota
	StatePayloadReady
	StatePayloadUploaded
	StateCommitting
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StatePayloadReady:
		return "payload_ready"
	case StatePayloadUploaded:
		return "payload_uploaded"
	case StateCommitting:
		return "committing"
	case StateTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Pipeline runs one item through transform, upload and commit.
// Stages run strictly in order and none is retried.
type Pipeline struct {
	transformer Transformer
	blobs       BlobPutter
	commits     Committer
	baseURL     string
	observer    Observer
	logger      *logger.Logger
}

func New(transformer Transformer, blobs BlobPutter, commits Committer, baseURL string, observer Observer, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Global()
	}
	return &Pipeline{
		transformer: transformer,
		blobs:       blobs,
		commits:     commits,
		baseURL:     baseURL,
		observer:    observer,
		logger:      log.WithField("component", "item-pipeline"),
	}
}

// Process drives the item to a terminal state and returns its outcome.
func (p *Pipeline) Process(ctx context.Context, req Request, item domain.Item) domain.ItemOutcome {
	log := p.logger.WithFields("index", req.Index, "blob", item.BlobName, "kind", item.Kind())

	outcome := p.run(ctx, req, item, log)
	if outcome.IsSuccess() {
		log.Info("item committed", "url", outcome.CommittedURL)
	} else {
		log.Warn("item failed", "stage", outcome.Stage, "transient", outcome.Transient, "error", outcome.Cause)
	}

	if p.observer != nil {
		p.observer.ItemFinished(req, item, outcome)
	}
	return outcome
}

func (p *Pipeline) run(ctx context.Context, req Request, item domain.Item, log *logger.Logger) domain.ItemOutcome {
	primary := domain.BlobTarget{BaseURL: p.baseURL, BlobName: item.BlobName, Credential: req.Credential}

	var (
		out     media.Output
		outcome domain.ItemOutcome
	)

	state := StateNew
	for state != StateTerminal {
		log.Debug("item state", "state", state)

		switch state {
		case StateNew:
			err := p.stage(domain.StageTransform, func() error {
				if err := item.Validate(); err != nil {
					return err
				}
				var terr error
				out, terr = p.transformer.Transform(ctx, item)
				return terr
			})
			if err != nil {
				outcome, state = domain.Failed(domain.StageTransform, err, false), StateTerminal
				continue
			}
			state = StatePayloadReady

		case StatePayloadReady:
			err := p.stage(domain.StageUploadPayload, func() error {
				return p.blobs.Put(ctx, primary, out.Primary)
			})
			if err != nil {
				outcome, state = domain.Failed(domain.StageUploadPayload, err, blob.ClassOf(err) == blob.ClassTransient), StateTerminal
				continue
			}
			if out.HasThumbnail() {
				state = StatePayloadUploaded
			} else {
				state = StateCommitting
			}

		case StatePayloadUploaded:
			thumb := domain.BlobTarget{BaseURL: p.baseURL, BlobName: item.ThumbnailBlobName, Credential: req.Credential}
			err := p.stage(domain.StageUploadThumbnail, func() error {
				return p.blobs.Put(ctx, thumb, out.Thumbnail)
			})
			if err != nil {
				outcome, state = domain.Failed(domain.StageUploadThumbnail, err, blob.ClassOf(err) == blob.ClassTransient), StateTerminal
				continue
			}
			state = StateCommitting

		case StateCommitting:
			committedURL := primary.PublicURL()
			err := p.stage(domain.StageCommit, func() error {
				return p.commits.Commit(ctx, req.PostID, committedURL, item.OriginalName, domain.CommitFileMime)
			})
			if err != nil {
				outcome = domain.Failed(domain.StageCommit, err, commitTransient(err))
			} else {
				outcome = domain.Succeeded(committedURL)
			}
			state = StateTerminal
		}
	}

	return outcome
}

func (p *Pipeline) stage(stage domain.Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	if p.observer != nil {
		p.observer.StageFinished(stage, time.Since(start), err)
	}
	return err
}

func commitTransient(err error) bool {
	var se *commit.StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500
	}
	return true
}
