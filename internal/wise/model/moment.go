// Package model defines domain models for wise delegation synchronization.
package model

import (
	"cmp"
	"fmt"
	"math"
)

type sentinel uint8

const (
	concrete sentinel = iota
	never
	now
	future
)

// Moment is the position of an operation in ledger history.
type Moment struct {
	Block uint64
	Tx    uint32
	Op    uint32

	kind sentinel
}

var (
	// Never is less than every other moment.
	Never = Moment{kind: never}
	// Now stands for the chain head at comparison time.
	Now = Moment{kind: now}
	// Future is greater than every real moment.
	Future = Moment{kind: future}
)

// NewMoment builds a concrete moment.
func NewMoment(block uint64, tx, op uint32) Moment {
	return Moment{Block: block, Tx: tx, Op: op}
}

// BlockStart returns the first moment of a block.
func BlockStart(block uint64) Moment {
	return Moment{Block: block}
}

// IsNever reports whether m is the Never sentinel.
func (m Moment) IsNever() bool { return m.kind == never }

// IsNow reports whether m is the Now sentinel.
func (m Moment) IsNow() bool { return m.kind == now }

// IsFuture reports whether m is the Future sentinel.
func (m Moment) IsFuture() bool { return m.kind == future }

// IsConcrete reports whether m denotes a real ledger position.
func (m Moment) IsConcrete() bool { return m.kind == concrete }

// Compare orders two moments. Now ranks above every concrete moment and below
// Future; use CompareAt to materialize it to a known head.
func Compare(a, b Moment) int {
	ra, rb := a.rank(), b.rank()
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	case ra != rankConcrete:
		return 0
	}
	return compareConcrete(a, b)
}

// CompareAt orders two moments after replacing Now with head.
func CompareAt(a, b, head Moment) int {
	if a.IsNow() {
		a = head
	}
	if b.IsNow() {
		b = head
	}
	return Compare(a, b)
}

// IsGreaterThan reports whether m is after other.
func (m Moment) IsGreaterThan(other Moment) bool {
	return Compare(m, other) > 0
}

// IsLesserThan reports whether m is before other.
func (m Moment) IsLesserThan(other Moment) bool {
	return Compare(m, other) < 0
}

// Equal reports strict equality under the total order.
func (m Moment) Equal(other Moment) bool {
	return Compare(m, other) == 0
}

// EqualTolerant compares two concrete moments while tolerating the transport's
// off-by-one op_in_trx value next to transaction boundaries.
// Compatibility shim: remove once the node reports op indexes reliably.
func EqualTolerant(a, b Moment) bool {
	if !a.IsConcrete() || !b.IsConcrete() {
		return Compare(a, b) == 0
	}
	if a.Block != b.Block || a.Tx != b.Tx {
		return false
	}
	if a.Op == b.Op {
		return true
	}
	diff := int64(a.Op) - int64(b.Op)
	return diff == 1 || diff == -1
}

func (m Moment) String() string {
	switch m.kind {
	case never:
		return "NEVER"
	case now:
		return "NOW"
	case future:
		return "FUTURE"
	}
	return fmt.Sprintf("%d.%d.%d", m.Block, m.Tx, m.Op)
}

const (
	rankNever = iota
	rankConcrete
	rankNow
	rankFuture
)

func (m Moment) rank() int {
	switch m.kind {
	case never:
		return rankNever
	case now:
		return rankNow
	case future:
		return rankFuture
	default:
		return rankConcrete
	}
}

func compareConcrete(a, b Moment) int {
	switch {
	case a.Block != b.Block:
		return cmp.Compare(a.Block, b.Block)
	case a.Tx != b.Tx:
		return cmp.Compare(a.Tx, b.Tx)
	default:
		return cmp.Compare(a.Op, b.Op)
	}
}

// LastOfBlock returns the greatest concrete moment inside a block.
func LastOfBlock(block uint64) Moment {
	return Moment{Block: block, Tx: math.MaxUint32, Op: math.MaxUint32}
}
