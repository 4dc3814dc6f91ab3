package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/model"
)

// LoadCursor returns the latest cursor saved for delegator.
func (r *Repository) LoadCursor(ctx context.Context, delegator string) (cursor model.Moment, err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("load_cursor", delegator, err, start)
	}()

	const query = `
SELECT block_num, tx_num, op_num
FROM wise_cursors
WHERE delegator = ?
ORDER BY updated_at DESC, block_num DESC
LIMIT 1`

	rows, err := r.conn.Query(ctx, query, delegator)
	if err != nil {
		return model.Moment{}, fmt.Errorf("query cursor: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", closeErr)
		}
	}()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return model.Moment{}, fmt.Errorf("iterate cursor: %w", err)
		}
		err = ErrCursorNotFound
		return model.Moment{}, err
	}

	var (
		block  uint64
		tx, op uint32
	)
	if err = rows.Scan(&block, &tx, &op); err != nil {
		return model.Moment{}, fmt.Errorf("scan cursor: %w", err)
	}
	if err = rows.Err(); err != nil {
		return model.Moment{}, fmt.Errorf("iterate cursor: %w", err)
	}
	return model.NewMoment(block, tx, op), nil
}
