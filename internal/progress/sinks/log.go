package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/bible-atlas-api/internal/progress"
)

// LogSink writes each event as a structured log line.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs the batch. Terminal failures are logged at warn level.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("job_id", evt.JobID),
			zap.Int64("user_id", evt.UserID),
			zap.String("stage", string(evt.Stage)),
			zap.Float64("progress", evt.Progress),
		}
		if evt.BlobURI != "" {
			fields = append(fields, zap.String("blob_uri", evt.BlobURI))
		}
		if evt.Dur > 0 {
			fields = append(fields, zap.Duration("dur", evt.Dur))
		}
		if evt.Note != "" {
			fields = append(fields, zap.String("note", evt.Note))
		}
		if evt.Stage == progress.StageJobError {
			s.logger.Warn("scrape progress", fields...)
			continue
		}
		s.logger.Info("scrape progress", fields...)
	}
	return nil
}

// Close implements progress.Sink.
func (s *LogSink) Close(context.Context) error {
	return nil
}
