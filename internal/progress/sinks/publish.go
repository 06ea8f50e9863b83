package sinks

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/bible-atlas-api/internal/progress"
	"github.com/JakeFAU/bible-atlas-api/internal/publisher"
)

// Completion is the message announced when a scrape job ends.
type Completion struct {
	JobID       string    `json:"jobId"`
	UserID      int64     `json:"userId"`
	Status      string    `json:"status"`
	BlobURI     string    `json:"blobUri,omitempty"`
	ContentHash string    `json:"contentHash,omitempty"`
	Error       string    `json:"error,omitempty"`
	FinishedAt  time.Time `json:"finishedAt"`
}

// PublishSink announces terminal job events on a topic.
type PublishSink struct {
	pub    publisher.Publisher
	topic  string
	logger *zap.Logger
}

// NewPublishSink creates a PublishSink. An empty topic defers to the
// publisher's default.
func NewPublishSink(pub publisher.Publisher, topic string, logger *zap.Logger) *PublishSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublishSink{pub: pub, topic: topic, logger: logger}
}

// Consume publishes one Completion per terminal event.
func (s *PublishSink) Consume(ctx context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		if !evt.Stage.Terminal() {
			continue
		}
		msg := Completion{
			JobID:       evt.JobID,
			UserID:      evt.UserID,
			Status:      "success",
			BlobURI:     evt.BlobURI,
			ContentHash: evt.ContentHash,
			FinishedAt:  evt.TS,
		}
		if evt.Stage == progress.StageJobError {
			msg.Status = "error"
			msg.Error = evt.Note
		}
		id, err := s.pub.Publish(ctx, s.topic, msg)
		if err != nil {
			return fmt.Errorf("publish completion for %s: %w", evt.JobID, err)
		}
		s.logger.Debug("published scrape completion", zap.String("job_id", evt.JobID), zap.String("message_id", id))
	}
	return nil
}

// Close implements progress.Sink.
func (s *PublishSink) Close(context.Context) error {
	return nil
}
