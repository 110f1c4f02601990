package scheduler

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"mediaup/internal/upload/domain"
	"mediaup/internal/upload/pipeline"
	"mediaup/pkg/logger"
)

// DefaultMaxWorkers is both the pool size used when no limit is configured
// and the ceiling for any configured limit.
const DefaultMaxWorkers = 4

type ItemProcessor interface {
	Process(ctx context.Context, req pipeline.Request, item domain.Item) domain.ItemOutcome
}

// Scheduler fans the items of one batch out to a bounded worker pool.
type Scheduler struct {
	items      ItemProcessor
	maxWorkers int
	observer   pipeline.Observer
	logger     *logger.Logger
}

func New(items ItemProcessor, maxWorkers int, observer pipeline.Observer, log *logger.Logger) *Scheduler {
	if maxWorkers < 1 {
		maxWorkers = DefaultMaxWorkers
	}
	maxWorkers = min(maxWorkers, DefaultMaxWorkers)
	if log == nil {
		log = logger.Global()
	}
	return &Scheduler{
		items:      items,
		maxWorkers: maxWorkers,
		observer:   observer,
		logger:     log.WithField("component", "batch-scheduler"),
	}
}

// PoolSize is the number of workers used for a batch of n items.
func (s *Scheduler) PoolSize(n int) int {
	return min(s.maxWorkers, n)
}

// Run processes every item and returns once all of them have terminated.
// Outcomes are stored at the index of their item; each slot has exactly one writer.
func (s *Scheduler) Run(ctx context.Context, req domain.BatchRequest) domain.BatchResult {
	result := domain.BatchResult{
		PostID:  req.PostID,
		PerItem: make([]domain.ItemOutcome, len(req.Items)),
	}
	if len(req.Items) == 0 {
		return result
	}

	workers := s.PoolSize(len(req.Items))
	log := s.logger.WithFields("postId", req.PostID)
	log.Info("batch started", "items", len(req.Items), "workers", workers)
	start := time.Now()

	var g errgroup.Group
	g.SetLimit(workers)

	for i, item := range req.Items {
		itemReq := pipeline.Request{PostID: req.PostID, Credential: req.Credential, Index: i}

		if item.DescriptorErr != nil {
			outcome := domain.Failed(domain.StageTransform, item.DescriptorErr, false)
			result.PerItem[i] = outcome
			log.Warn("item rejected before start", "index", i, "error", item.DescriptorErr)
			if s.observer != nil {
				s.observer.ItemFinished(itemReq, item, outcome)
			}
			continue
		}

		// Go blocks while the pool is full, so items start in input order
		g.Go(func() error {
			result.PerItem[i] = s.items.Process(ctx, itemReq, item)
			return nil
		})
	}
	_ = g.Wait()

	succeeded, failed := result.Counts()
	log.Info("batch finished", "succeeded", succeeded, "failed", failed, "duration", time.Since(start))
	return result
}
