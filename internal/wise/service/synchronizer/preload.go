package synchronizer

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/model"
	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/protocol"
	"github.com/goodnatureofminers/wisedelegator-backend/pkg/pipeline"
)

// preload walks the delegator's account history once and feeds the rules
// index and the confirmation ledger from two branches of the same walk.
func (d *Daemon) preload(ctx context.Context) error {
	loader := pipeline.LoaderFunc[model.RawOperation](func(ctx context.Context, from int64, limit int) ([]pipeline.Entry[model.RawOperation], error) {
		var page []pipeline.Entry[model.RawOperation]
		err := d.retry(ctx, "get_account_history", 0, func(ctx context.Context) error {
			var err error
			page, err = d.ledger.HistoryPage(ctx, d.opts.Delegator, from, limit)
			return err
		})
		return page, err
	})
	supplier := pipeline.NewSupplier[model.RawOperation](loader, d.opts.HistoryPageSize)

	g, gctx := errgroup.WithContext(ctx)
	setRules := pipeline.Filter(gctx, d.decoded(gctx, supplier.Attach()), func(op protocol.Operation) bool {
		_, ok := op.Command.(protocol.SetRules)
		return ok
	})
	confirmVotes := pipeline.Filter(gctx, d.decoded(gctx, supplier.Attach()), func(op protocol.Operation) bool {
		_, ok := op.Command.(protocol.ConfirmVotes)
		return ok
	})

	var grants, confirmed int
	g.Go(func() error {
		return supplier.Run(gctx)
	})
	g.Go(func() error {
		return pipeline.Take(gctx, setRules, func(op protocol.Operation) (bool, error) {
			if d.index.AddOperation(op) {
				grants++
			}
			return true, nil
		})
	})
	g.Go(func() error {
		return pipeline.Take(gctx, confirmVotes, func(op protocol.Operation) (bool, error) {
			confirmed += d.confirmations.record(op)
			return true, nil
		})
	})
	if err := g.Wait(); err != nil {
		return err
	}

	d.logger.Info("history preloaded",
		zap.Int("rule_grants", grants),
		zap.Int("confirmations", confirmed),
		zap.Int("voters", len(d.index.Voters())),
	)
	return nil
}

// decoded limits raw to the configured depth and decodes wise commands.
// Operations that are not wise commands come out with a nil Command.
func (d *Daemon) decoded(ctx context.Context, raw *pipeline.Stream[model.RawOperation]) *pipeline.Stream[protocol.Operation] {
	if d.opts.HistoryDepth > 0 {
		raw = pipeline.Limit(ctx, raw, d.opts.HistoryDepth)
	}
	return pipeline.Transform(ctx, raw, func(op model.RawOperation) (protocol.Operation, error) {
		decoded, err := d.decode(op)
		if err != nil {
			return protocol.Operation{}, nil
		}
		return decoded, nil
	})
}

// decode decodes op, logging operations that look like wise commands but
// cannot be read.
func (d *Daemon) decode(op model.RawOperation) (protocol.Operation, error) {
	decoded, err := d.codec.Decode(op)
	if err != nil && !errors.Is(err, protocol.ErrNotApplicable) {
		d.logger.Debug("skipping undecodable operation", zap.Stringer("moment", op.Moment), zap.String("tx_id", op.TxID), zap.Error(err))
	}
	return decoded, err
}
