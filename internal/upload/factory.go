package upload

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"mediaup/internal/upload/api"
	"mediaup/internal/upload/blob"
	"mediaup/internal/upload/commit"
	"mediaup/internal/upload/media"
	"mediaup/internal/upload/metrics"
	"mediaup/internal/upload/pipeline"
	"mediaup/internal/upload/scheduler"
	"mediaup/pkg/config"
	"mediaup/pkg/logger"
)

type options struct {
	codec      media.Codec
	registerer prometheus.Registerer
	sink       metrics.Sink
	logger     *logger.Logger
}

type Option func(*options)

// WithCodec replaces the ffmpeg codec.
func WithCodec(codec media.Codec) Option {
	return func(o *options) { o.codec = codec }
}

// WithRegisterer sets where metrics are registered; the default registerer otherwise.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithNotificationSink routes per-item notifications somewhere other than the log.
func WithNotificationSink(sink metrics.Sink) Option {
	return func(o *options) { o.sink = sink }
}

func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.logger = log }
}

// NewService wires the full upload stack described by cfg.
func NewService(cfg *config.Config, opts ...Option) (*api.Service, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Global()
	}
	if o.sink == nil {
		o.sink = metrics.LogSink{Logger: o.logger.WithField("component", "notifier")}
	}
	if o.codec == nil {
		ff := media.NewFFmpegCodec(cfg.Media.FFmpegPath, cfg.Media.TempDir, o.logger)
		if err := ff.Available(); err != nil {
			// images and videos will fail at transform; other files still go through
			o.logger.Warn("media codec unavailable", "error", err)
		}
		o.codec = ff
	}

	prom, err := metrics.NewPrometheusObserver("mediaup", o.registerer)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	transformer := media.NewTransformer(o.codec,
		media.Encoding{Format: cfg.Media.ImageFormat, Quality: cfg.Media.Quality},
		media.Encoding{Format: cfg.Media.ThumbnailFormat, Quality: cfg.Media.Quality},
	)
	writer := blob.NewWriter(cfg.Storage.RequestTimeout, prom, o.logger)
	committer := commit.NewClient(cfg.Commit.BaseURL, cfg.Commit.RequestTimeout, o.logger)

	observer := pipeline.Multi(prom, metrics.NewNotifier(o.sink))
	items := pipeline.New(transformer, writer, committer, cfg.Storage.BaseURL, observer, o.logger)
	sched := scheduler.New(items, cfg.Batch.MaxWorkers, observer, o.logger)

	return api.NewService(sched, o.logger), nil
}
