package synchronizer

import (
	"math"
	"time"

	"github.com/sasha-s/go-deadlock"

	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/model"
	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/protocol"
)

type confirmed struct {
	// moment and timestamp of the confirm_votes operation.
	moment    model.Moment
	timestamp time.Time
	entry     protocol.Confirmation
}

type entryID struct {
	moment model.Moment
	index  int
}

// confirmations remembers every confirm_votes the delegator published, plus
// the voteorders accepted by this run whose confirmation has not landed yet.
type confirmations struct {
	delegator string

	mu      deadlock.RWMutex
	seen    map[entryID]struct{}
	byTx    map[string][]confirmed
	byVoter map[string][]confirmed
	pending map[string]map[model.ConfirmationKey]model.Voteorder
}

func newConfirmations(delegator string) *confirmations {
	return &confirmations{
		delegator: delegator,
		seen:      make(map[entryID]struct{}),
		byTx:      make(map[string][]confirmed),
		byVoter:   make(map[string][]confirmed),
		pending:   make(map[string]map[model.ConfirmationKey]model.Voteorder),
	}
}

// record stores the entries of op when it is a ConfirmVotes of the
// delegator. Recording the same operation again is a no-op.
func (c *confirmations) record(op protocol.Operation) int {
	cmd, ok := op.Command.(protocol.ConfirmVotes)
	if !ok || op.Sender != c.delegator {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	added := 0
	for i, entry := range cmd.Entries {
		id := entryID{moment: op.Moment, index: i}
		if _, dup := c.seen[id]; dup {
			continue
		}
		c.seen[id] = struct{}{}
		if orders := c.pending[entry.Voter]; orders != nil {
			delete(orders, model.ConfirmationKey{TxID: entry.VoteorderTxID, OperationIndex: entry.OperationIndex})
		}
		conf := confirmed{moment: op.Moment, timestamp: op.Timestamp, entry: entry}
		c.byTx[entry.VoteorderTxID] = append(c.byTx[entry.VoteorderTxID], conf)
		if entry.Voter != "" {
			c.byVoter[entry.Voter] = append(c.byVoter[entry.Voter], conf)
		}
		added++
	}
	return added
}

// isConfirmed reports whether order was already processed. The transport may
// report the operation index of a voteorder off by one, so when the
// transaction has a single confirmed voteorder a neighbouring index matches
// too.
func (c *confirmations) isConfirmed(order model.Voteorder) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := c.byTx[order.TxID]
	indexes := make(map[uint32]struct{}, len(entries))
	for _, e := range entries {
		if e.entry.OperationIndex == order.Moment.Op {
			return true
		}
		indexes[e.entry.OperationIndex] = struct{}{}
	}
	if len(indexes) != 1 {
		return false
	}
	for idx := range indexes {
		m := model.NewMoment(order.Moment.Block, order.Moment.Tx, idx)
		return model.EqualTolerant(m, order.Moment)
	}
	return false
}

// accept marks order as cast until its confirmation is recorded.
func (c *confirmations) accept(order model.Voteorder) {
	c.mu.Lock()
	defer c.mu.Unlock()

	orders := c.pending[order.Voter]
	if orders == nil {
		orders = make(map[model.ConfirmationKey]model.Voteorder)
		c.pending[order.Voter] = orders
	}
	orders[order.Key()] = order
}

// weightCast sums the absolute weight of accepted confirmations for voter
// published at or after since and strictly before before. Accepted
// voteorders still awaiting their confirmation count by their own moment.
func (c *confirmations) weightCast(voter string, since time.Time, before model.Moment) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0.0
	for _, e := range c.byVoter[voter] {
		if !e.entry.Accepted || e.timestamp.Before(since) || !e.moment.IsLesserThan(before) {
			continue
		}
		total += math.Abs(float64(e.entry.Weight))
	}
	for _, order := range c.pending[voter] {
		if order.Timestamp.Before(since) || !order.Moment.IsLesserThan(before) {
			continue
		}
		total += math.Abs(order.Weight)
	}
	return total
}
