// Package protocol encodes and decodes wise commands carried by custom_json
// ledger operations.
package protocol

import (
	"time"

	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/model"
	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/rules"
)

// CustomJSONID marks custom_json operations that belong to wise.
const CustomJSONID = "wise"

// Command names on the wire.
const (
	SetRulesName      = "set_rules"
	SendVoteorderName = "send_voteorder"
	ConfirmVotesName  = "confirm_votes"
)

// Command is one of SetRules, SendVoteorder or ConfirmVotes.
type Command interface {
	Name() string
	command()
}

// SetRules replaces every ruleset the delegator granted to Voter. An empty
// Rulesets list revokes them all.
type SetRules struct {
	Voter    string
	Rulesets []rules.Ruleset
}

// SendVoteorder asks Delegator to vote on Author/Permlink under Ruleset.
type SendVoteorder struct {
	Delegator string
	Ruleset   string
	Author    string
	Permlink  string
	Weight    float64
}

// ConfirmVotes records the outcome of every voteorder processed in one block.
type ConfirmVotes struct {
	Entries []Confirmation
}

// Confirmation is the outcome of one voteorder.
type Confirmation struct {
	VoteorderTxID  string
	OperationIndex uint32
	Accepted       bool
	Voter          string
	// Weight is the vote weight cast, in basis points; zero when rejected.
	Weight int
	// Msg carries the rejection reason.
	Msg string
}

// Key returns the idempotency key of the confirmed voteorder.
func (c Confirmation) Key() model.ConfirmationKey {
	return model.ConfirmationKey{TxID: c.VoteorderTxID, OperationIndex: c.OperationIndex}
}

func (SetRules) Name() string      { return SetRulesName }
func (SendVoteorder) Name() string { return SendVoteorderName }
func (ConfirmVotes) Name() string  { return ConfirmVotesName }

func (SetRules) command()      {}
func (SendVoteorder) command() {}
func (ConfirmVotes) command()  {}

// Operation is a decoded command together with where it was found.
type Operation struct {
	Moment    model.Moment
	TxID      string
	Timestamp time.Time
	Sender    string
	Command   Command
}

// Voteorder converts a SendVoteorder operation to its domain form. ok is false
// for other commands.
func (o Operation) Voteorder() (model.Voteorder, bool) {
	cmd, ok := o.Command.(SendVoteorder)
	if !ok {
		return model.Voteorder{}, false
	}
	return model.Voteorder{
		Delegator: cmd.Delegator,
		Voter:     o.Sender,
		Ruleset:   cmd.Ruleset,
		Author:    cmd.Author,
		Permlink:  cmd.Permlink,
		Weight:    cmd.Weight,
		Moment:    o.Moment,
		TxID:      o.TxID,
		Timestamp: o.Timestamp,
	}, true
}
