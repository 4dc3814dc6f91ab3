package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/model"
)

// SaveCursor records where synchronization of delegator resumes. Only
// concrete moments can be stored.
func (r *Repository) SaveCursor(ctx context.Context, delegator string, cursor model.Moment) error {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("save_cursor", delegator, err, start)
	}()

	if !cursor.IsConcrete() {
		err = fmt.Errorf("cursor %s is not a ledger position", cursor)
		return err
	}

	const query = `
INSERT INTO wise_cursors (delegator, block_num, tx_num, op_num, updated_at)
VALUES (?, ?, ?, ?, ?)`

	if err = r.conn.Exec(ctx, query, delegator, cursor.Block, cursor.Tx, cursor.Op, time.Now().UTC()); err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	return nil
}
