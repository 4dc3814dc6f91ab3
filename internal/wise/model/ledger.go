package model

import (
	"errors"
	"time"
)

var (
	// ErrPostNotFound is returned when the ledger has no post for author/permlink.
	ErrPostNotFound = errors.New("post not found")
	// ErrAccountNotFound is returned when the ledger has no such account.
	ErrAccountNotFound = errors.New("account not found")
)

// OperationType names a ledger operation kind.
type OperationType string

var (
	// CustomJSONOperation carries application payloads.
	CustomJSONOperation OperationType = "custom_json"
	// VoteOperation casts a weighted vote on a post.
	VoteOperation OperationType = "vote"
)

// RawOperation is an undecoded ledger operation with its position.
type RawOperation struct {
	Moment     Moment
	TxID       string
	Timestamp  time.Time
	Type       OperationType
	CustomJSON *CustomJSON
	Vote       *Vote
}

// CustomJSON is the payload of a custom_json operation.
type CustomJSON struct {
	ID                   string
	RequiredAuths        []string
	RequiredPostingAuths []string
	JSON                 string
}

// Sender returns the first account that authorized the operation.
func (c CustomJSON) Sender() string {
	if len(c.RequiredPostingAuths) > 0 {
		return c.RequiredPostingAuths[0]
	}
	if len(c.RequiredAuths) > 0 {
		return c.RequiredAuths[0]
	}
	return ""
}

// Vote is the payload of a vote operation.
type Vote struct {
	Voter    string
	Author   string
	Permlink string
	Weight   int16
}

// Block is a ledger block flattened into its operations in ledger order.
type Block struct {
	Number     uint64
	Timestamp  time.Time
	Operations []RawOperation
}

// Post is the subset of post content the rules inspect.
type Post struct {
	Author        string
	Permlink      string
	Tags          []string
	ActiveVotes   []ActiveVote
	PendingPayout float64
	TotalPayout   float64
	Created       time.Time
}

// ActiveVote is a vote already cast on a post.
type ActiveVote struct {
	Voter   string
	Percent int32
}

// Account is the subset of account info the rules inspect.
type Account struct {
	Name string
	// VotingPower is expressed in basis points (10000 = 100%).
	VotingPower int64
}
