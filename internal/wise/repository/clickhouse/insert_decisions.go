package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/model"
)

// InsertDecisions stores decision rows in ClickHouse.
func (r *Repository) InsertDecisions(ctx context.Context, records []model.DecisionRecord) error {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("insert_decisions", firstDelegator(records), err, start)
	}()

	if len(records) == 0 {
		return nil
	}

	const query = `
INSERT INTO wise_decisions (
	run_id,
	delegator,
	voter,
	ruleset,
	author,
	permlink,
	weight,
	block_num,
	tx_num,
	op_num,
	tx_id,
	voteorder_timestamp,
	accepted,
	reason,
	decided_at
) VALUES`

	batch, err := r.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare decisions batch: %w", err)
	}

	for _, rec := range records {
		order := rec.Decision.Voteorder
		if err = batch.Append(
			rec.RunID,
			order.Delegator,
			order.Voter,
			order.Ruleset,
			order.Author,
			order.Permlink,
			order.Weight,
			order.Moment.Block,
			order.Moment.Tx,
			order.Moment.Op,
			order.TxID,
			order.Timestamp,
			rec.Decision.Accepted,
			rec.Decision.Reason,
			rec.DecidedAt,
		); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append decision: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert decisions: %w", err)
	}
	return nil
}

func firstDelegator(records []model.DecisionRecord) string {
	if len(records) == 0 {
		return ""
	}
	return records[0].Decision.Voteorder.Delegator
}
