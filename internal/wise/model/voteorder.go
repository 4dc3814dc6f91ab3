package model

import "time"

// Voteorder is a voter's request to vote on the delegator's behalf.
type Voteorder struct {
	Delegator string
	Voter     string
	Ruleset   string
	Author    string
	Permlink  string
	Weight    float64

	Moment    Moment
	TxID      string
	Timestamp time.Time
}

// Key returns the idempotency key of the confirmation for this voteorder.
func (v Voteorder) Key() ConfirmationKey {
	return ConfirmationKey{TxID: v.TxID, OperationIndex: v.Moment.Op}
}

// ConfirmationKey identifies the voteorder a confirmation refers to.
type ConfirmationKey struct {
	TxID           string
	OperationIndex uint32
}

// Decision is the outcome of validating one voteorder.
type Decision struct {
	Voteorder Voteorder
	Accepted  bool
	Reason    string
}

// DecisionRecord is a journaled decision of one synchronization run.
type DecisionRecord struct {
	RunID     string
	Decision  Decision
	DecidedAt time.Time
}
