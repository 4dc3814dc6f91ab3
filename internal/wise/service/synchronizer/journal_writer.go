package synchronizer

import (
	"context"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/model"
	"github.com/goodnatureofminers/wisedelegator-backend/pkg/batcher"
)

// journalWriter batches decision records into the journal.
type journalWriter struct {
	journal Journal
	logger  *zap.Logger
	batcher *batcher.Batcher[model.DecisionRecord]
}

func newJournalWriter(journal Journal, logger *zap.Logger) *journalWriter {
	w := &journalWriter{
		journal: journal,
		logger:  logger,
	}
	w.batcher = batcher.New[model.DecisionRecord](
		logger.Named("journalBatcher"),
		w.flush,
		batcher.Options{
			Size:     journalBatcherSize,
			Interval: journalBatcherFlushInterval,
			RPS:      journalBatcherRPS,
		},
	)
	return w
}

func (w *journalWriter) Start(ctx context.Context) {
	w.batcher.Start(ctx)
}

func (w *journalWriter) Stop() {
	w.batcher.Stop()
}

func (w *journalWriter) Write(ctx context.Context, records ...model.DecisionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return w.batcher.Add(ctx, records...)
}

func (w *journalWriter) flush(ctx context.Context, records []model.DecisionRecord) error {
	if err := w.journal.InsertDecisions(ctx, records); err != nil {
		return err
	}
	w.logger.Debug("InsertDecisions", zap.Int("count", len(records)))
	return nil
}
