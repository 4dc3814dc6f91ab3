package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/model"
)

// RecentDecisions returns up to limit of the newest journaled decisions of
// delegator, newest first.
func (r *Repository) RecentDecisions(ctx context.Context, delegator string, limit int) (records []model.DecisionRecord, err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("recent_decisions", delegator, err, start)
	}()

	if limit <= 0 {
		return nil, nil
	}

	const query = `
SELECT
	run_id,
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
FROM wise_decisions
WHERE delegator = ?
ORDER BY block_num DESC, tx_num DESC, op_num DESC
LIMIT ?`

	rows, err := r.conn.Query(ctx, query, delegator, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent decisions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var (
			rec    model.DecisionRecord
			order  = model.Voteorder{Delegator: delegator}
			block  uint64
			tx, op uint32
		)
		if err = rows.Scan(
			&rec.RunID,
			&order.Voter,
			&order.Ruleset,
			&order.Author,
			&order.Permlink,
			&order.Weight,
			&block,
			&tx,
			&op,
			&order.TxID,
			&order.Timestamp,
			&rec.Decision.Accepted,
			&rec.Decision.Reason,
			&rec.DecidedAt,
		); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		order.Moment = model.NewMoment(block, tx, op)
		rec.Decision.Voteorder = order
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}
	return records, nil
}
