package synchronizer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/model"
	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/protocol"
	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/rules"
	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/validity"
	"github.com/goodnatureofminers/wisedelegator-backend/pkg/safe"
	"github.com/goodnatureofminers/wisedelegator-backend/pkg/workerpool"
)

// processBlock handles block n. Operations before from are skipped.
func (d *Daemon) processBlock(ctx context.Context, n uint64, from model.Moment) (err error) {
	started := time.Now()
	defer func() {
		d.metrics.ObserveBlock(err, started)
	}()

	d.observer.OnEvent(nil, Event{Type: StartBlock, Block: n})

	var block model.Block
	err = d.retry(ctx, "get_block", n, func(ctx context.Context) error {
		var err error
		block, err = d.ledger.Block(ctx, n)
		return err
	})
	if err != nil {
		return fmt.Errorf("load block %d: %w", n, err)
	}

	orders := d.apply(block, from)
	decisions, err := d.decide(ctx, orders)
	if err != nil {
		return fmt.Errorf("decide voteorders of block %d: %w", n, err)
	}
	for i := range decisions {
		d.metrics.ObserveDecision(decisions[i].Accepted)
		evType := VoteorderRejected
		if decisions[i].Accepted {
			evType = VoteorderPassed
		}
		d.observer.OnEvent(nil, Event{Type: evType, Block: n, Decision: &decisions[i]})
	}

	if len(decisions) > 0 {
		if err = d.push(ctx, n, decisions); err != nil {
			return fmt.Errorf("push decisions of block %d: %w", n, err)
		}
		d.journalDecisions(ctx, decisions)
	}

	cursor := model.BlockStart(n + 1)
	d.saveCursor(ctx, cursor)
	d.metrics.SetCursor(cursor.Block)
	d.observer.OnEvent(nil, Event{Type: EndBlock, Block: n, Moment: cursor})
	return nil
}

// apply feeds the wise commands of block into the daemon state and returns
// the voteorders addressed to the delegator, in ledger order.
func (d *Daemon) apply(block model.Block, from model.Moment) []model.Voteorder {
	var orders []model.Voteorder
	for _, raw := range block.Operations {
		if raw.Moment.IsLesserThan(from) {
			continue
		}
		op, err := d.decode(raw)
		if err != nil {
			continue
		}
		switch op.Command.(type) {
		case protocol.SetRules:
			d.index.AddOperation(op)
		case protocol.ConfirmVotes:
			d.confirmations.record(op)
		case protocol.SendVoteorder:
			if order, ok := op.Voteorder(); ok && order.Delegator == d.opts.Delegator {
				orders = append(orders, order)
			}
		}
	}
	return orders
}

// decide validates every unconfirmed order and returns the decisions in the
// order of orders. Voters are validated in parallel, the orders of one voter
// one after another so each sees the weight accepted before it.
func (d *Daemon) decide(ctx context.Context, orders []model.Voteorder) ([]model.Decision, error) {
	var pending []model.Voteorder
	for _, order := range orders {
		if d.confirmations.isConfirmed(order) {
			d.logger.Debug("voteorder already confirmed", zap.String("tx_id", order.TxID), zap.Stringer("moment", order.Moment))
			continue
		}
		pending = append(pending, order)
	}
	if len(pending) == 0 {
		return nil, nil
	}

	groups := groupByVoter(pending)
	decided, err := workerpool.Map(ctx, d.opts.Concurrency, groups, func(ctx context.Context, idx []int) ([]model.Decision, error) {
		out := make([]model.Decision, 0, len(idx))
		for _, i := range idx {
			dec, err := d.decideOne(ctx, pending[i])
			if err != nil {
				return nil, err
			}
			if dec.Accepted {
				d.confirmations.accept(dec.Voteorder)
			}
			out = append(out, dec)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	decisions := make([]model.Decision, len(pending))
	for g, idx := range groups {
		for j, i := range idx {
			decisions[i] = decided[g][j]
		}
	}
	return decisions, nil
}

// groupByVoter returns the indexes of orders per voter, voters in order of
// first appearance.
func groupByVoter(orders []model.Voteorder) [][]int {
	pos := make(map[string]int)
	var groups [][]int
	for i, order := range orders {
		g, ok := pos[order.Voter]
		if !ok {
			g = len(groups)
			pos[order.Voter] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

func (d *Daemon) decideOne(ctx context.Context, order model.Voteorder) (model.Decision, error) {
	rs, err := d.index.RulesetValidAt(order.Voter, order.Ruleset, order.Moment)
	if err != nil {
		d.logger.Debug("no ruleset for voteorder", zap.String("voter", order.Voter), zap.Error(err))
		return model.Decision{Voteorder: order, Reason: validity.ReasonNoSuchRuleset}, nil
	}

	var verdict rules.Verdict
	err = d.retry(ctx, "validate_voteorder", order.Moment.Block, func(ctx context.Context) error {
		var err error
		verdict, err = d.engine.Evaluate(ctx, order, rs, d.rules)
		return err
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.Decision{}, ctxErr
		}
		return model.Decision{Voteorder: order, Reason: err.Error()}, nil
	}
	if !verdict.Passed {
		return model.Decision{Voteorder: order, Reason: verdict.Reason()}, nil
	}
	return model.Decision{Voteorder: order, Accepted: true}, nil
}

// push submits one vote per accepted decision followed by one confirm_votes
// covering every decision.
func (d *Daemon) push(ctx context.Context, n uint64, decisions []model.Decision) (err error) {
	ops, err := d.operations(decisions)
	defer func() {
		d.metrics.ObservePush(err, len(ops))
	}()
	if err != nil {
		return err
	}

	var moment model.Moment
	err = d.retry(ctx, "broadcast", n, func(ctx context.Context) error {
		var err error
		moment, err = d.broadcaster.Submit(ctx, ops)
		return err
	})
	if err != nil {
		return err
	}
	d.observer.OnEvent(nil, Event{Type: OperationsPushed, Block: n, Moment: moment, Operations: len(ops)})
	return nil
}

func (d *Daemon) operations(decisions []model.Decision) ([]model.RawOperation, error) {
	ops := make([]model.RawOperation, 0, len(decisions)+1)
	entries := make([]protocol.Confirmation, 0, len(decisions))
	for _, dec := range decisions {
		order := dec.Voteorder
		entry := protocol.Confirmation{
			VoteorderTxID:  order.TxID,
			OperationIndex: order.Moment.Op,
			Accepted:       dec.Accepted,
			Voter:          order.Voter,
			Msg:            dec.Reason,
		}
		if dec.Accepted {
			weight, err := safe.Int16FromFloat(order.Weight)
			if err != nil {
				return nil, fmt.Errorf("vote weight of %s: %w", order.TxID, err)
			}
			ops = append(ops, model.RawOperation{
				Type: model.VoteOperation,
				Vote: &model.Vote{
					Voter:    d.opts.Delegator,
					Author:   order.Author,
					Permlink: order.Permlink,
					Weight:   weight,
				},
			})
			entry.Weight = int(weight)
		}
		entries = append(entries, entry)
	}

	confirm, err := d.codec.Encode(d.opts.Delegator, protocol.ConfirmVotes{Entries: entries})
	if err != nil {
		return nil, err
	}
	return append(ops, confirm), nil
}

func (d *Daemon) journalDecisions(ctx context.Context, decisions []model.Decision) {
	if d.writer == nil {
		return
	}
	now := d.clock.Now()
	records := make([]model.DecisionRecord, 0, len(decisions))
	for _, dec := range decisions {
		records = append(records, model.DecisionRecord{RunID: d.runID, Decision: dec, DecidedAt: now})
	}
	if err := d.writer.Write(ctx, records...); err != nil {
		d.logger.Warn("decisions not journaled", zap.Int("count", len(records)), zap.Error(err))
	}
}

// saveCursor persists the resume cursor. Failures are logged only: resuming
// from an older cursor skips confirmed voteorders.
func (d *Daemon) saveCursor(ctx context.Context, cursor model.Moment) {
	if d.journal == nil {
		return
	}
	if err := d.journal.SaveCursor(ctx, d.opts.Delegator, cursor); err != nil {
		d.logger.Warn("cursor not saved", zap.Stringer("cursor", cursor), zap.Error(err))
	}
}
