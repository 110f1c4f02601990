package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"mediaup/internal/upload/domain"
	"mediaup/internal/upload/scheduler"
	perrors "mediaup/pkg/errors"
	"mediaup/pkg/logger"
)

// BatchRunner is satisfied by *scheduler.Scheduler.
type BatchRunner interface {
	Run(ctx context.Context, req domain.BatchRequest) domain.BatchResult
}

// Service is the single entry point host adapters call.
type Service struct {
	runner BatchRunner
	newID  func() string
	logger *logger.Logger
}

func NewService(runner BatchRunner, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Global()
	}
	return &Service{
		runner: runner,
		newID:  uuid.NewString,
		logger: log.WithField("component", "batch-api"),
	}
}

// UploadBatch validates the batch descriptor, runs it to completion and
// returns the per-item report. The only error returned is a batch-level
// validation failure; item failures are part of the report.
func (s *Service) UploadBatch(ctx context.Context, postID, credential string, itemsJSON []byte) (*Report, error) {
	if strings.TrimSpace(postID) == "" {
		return nil, fmt.Errorf("%w: %w", perrors.ErrInvalidBatch, perrors.ErrMissingPostID)
	}
	if strings.TrimSpace(credential) == "" {
		return nil, fmt.Errorf("%w: %w", perrors.ErrInvalidBatch, perrors.ErrMissingCredential)
	}

	items, err := scheduler.ParseItems(itemsJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", perrors.ErrInvalidBatch, err)
	}

	batchID := s.newID()
	s.logger.Info("batch accepted", "batchId", batchID, "postId", postID, "items", len(items))

	result := s.runner.Run(ctx, domain.BatchRequest{
		PostID:     postID,
		Credential: credential,
		Items:      items,
	})

	report := NewReport(batchID, items, result)
	s.logger.Info("batch completed", "batchId", batchID, "postId", postID,
		"succeeded", report.Succeeded, "failed", report.Failed)
	return report, nil
}
