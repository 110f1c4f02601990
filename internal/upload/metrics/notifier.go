package metrics

import (
	"fmt"
	"time"

	"mediaup/internal/upload/domain"
	"mediaup/internal/upload/pipeline"
	"mediaup/pkg/logger"
)

// Notification is a user-facing message about one item.
type Notification struct {
	Title   string
	Content string
}

// Sink delivers notifications to whatever surface the host provides.
type Sink interface {
	Notify(n Notification)
}

// LogSink writes notifications to the logger.
type LogSink struct {
	Logger *logger.Logger
}

func (s LogSink) Notify(n Notification) {
	s.Logger.Info(n.Title, "content", n.Content)
}

// Notifier turns item outcomes into upload complete / upload error notices.
type Notifier struct {
	sink Sink
}

var _ pipeline.Observer = (*Notifier)(nil)

func NewNotifier(sink Sink) *Notifier {
	return &Notifier{sink: sink}
}

func (n *Notifier) StageFinished(domain.Stage, time.Duration, error) {}

func (n *Notifier) ItemFinished(_ pipeline.Request, item domain.Item, outcome domain.ItemOutcome) {
	name := item.OriginalName
	if name == "" {
		name = item.BlobName
	}
	if outcome.IsSuccess() {
		n.sink.Notify(Notification{
			Title:   "Upload Complete",
			Content: fmt.Sprintf("File %s uploaded successfully.", name),
		})
		return
	}
	n.sink.Notify(Notification{
		Title:   "Upload Error",
		Content: fmt.Sprintf("Failed to upload %s", name),
	})
}
