package worker

import (
	"context"

	"github.com/lending-indexer/internal/events"
	"github.com/lending-indexer/internal/logging"
	"github.com/lending-indexer/internal/metrics"
	"github.com/lending-indexer/internal/retry"
	"github.com/lending-indexer/internal/storage"
)

// IngestWorker applies decoded events to the metrics engine exactly once.
// Replay protection happens here, at the boundary: the engine itself
// accumulates blindly, so an event id must be marked before Apply runs and
// unmarked again if Apply ultimately fails.
type IngestWorker struct {
	engine   *metrics.Engine
	enricher *Enricher
	dedupe   *storage.EventDedupe
	retryCfg *retry.RetryConfig
	logger   *logging.Logger
}

// NewIngestWorker creates an ingestion worker
func NewIngestWorker(engine *metrics.Engine, enricher *Enricher, dedupe *storage.EventDedupe, logger *logging.Logger) *IngestWorker {
	return &IngestWorker{
		engine:   engine,
		enricher: enricher,
		dedupe:   dedupe,
		retryCfg: retry.DefaultRetryConfig(),
		logger:   logger,
	}
}

// Handle processes one decoded event. Duplicates are dropped silently; store
// failures are retried with backoff and, if they persist, the dedupe mark is
// released so the next poll can retry the whole range.
func (w *IngestWorker) Handle(ctx context.Context, ev *events.Event) error {
	first, err := w.dedupe.MarkProcessed(ctx, ev.ID())
	if err != nil {
		return err
	}
	if !first {
		w.logger.WithField("eventId", ev.ID()).Debug("Skipping already processed event")
		return nil
	}

	if err := w.enricher.Enrich(ctx, ev); err != nil {
		w.release(ctx, ev)
		return err
	}

	result := retry.WithExponentialBackoff(ctx, w.retryCfg, func(ctx context.Context, attempt int) error {
		return w.engine.Apply(ctx, ev)
	})
	if !result.Success {
		w.release(ctx, ev)
		return result.LastError
	}

	return nil
}

func (w *IngestWorker) release(ctx context.Context, ev *events.Event) {
	if err := w.dedupe.Clear(ctx, ev.ID()); err != nil {
		w.logger.WithError(err).WithField("eventId", ev.ID()).Warn("Failed to release dedupe mark")
	}
}
