package rules

import (
	"context"
	"errors"
	"fmt"

	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/model"
)

const (
	// KindWeight tags the Weight rule.
	KindWeight = "weight"
	// KindVotingPower tags the VotingPower rule.
	KindVotingPower = "voting_power"
	// KindPayout tags the Payout rule.
	KindPayout = "payout"
	// KindVotesCount tags the VotesCount rule.
	KindVotesCount = "votes_count"
)

func checkComparison(mode Mode) error {
	switch mode {
	case ModeEqual, ModeMore, ModeLess:
		return nil
	}
	return fmt.Errorf("unsupported mode %q", mode)
}

// Weight bounds the voteorder weight to [Min, Max].
type Weight struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Kind returns KindWeight.
func (r *Weight) Kind() string { return KindWeight }

func (r *Weight) check() error {
	if r.Min > r.Max {
		return fmt.Errorf("min %v is greater than max %v", r.Min, r.Max)
	}
	return nil
}

// Validate checks the voteorder weight against the allowed range.
func (r *Weight) Validate(_ context.Context, in Input, _ Context) error {
	w := in.Voteorder.Weight
	if w < r.Min || w > r.Max {
		return fail(KindWeight, "weight %v is outside [%v, %v]", w, r.Min, r.Max)
	}
	return nil
}

// VotingPower compares the delegator's current voting power, in basis
// points, with Value.
type VotingPower struct {
	Mode  Mode    `json:"mode"`
	Value float64 `json:"value"`
}

// Kind returns KindVotingPower.
func (r *VotingPower) Kind() string { return KindVotingPower }

func (r *VotingPower) check() error { return checkComparison(r.Mode) }

// Validate compares the delegator's voting power with the threshold.
func (r *VotingPower) Validate(ctx context.Context, in Input, rc Context) error {
	account, err := rc.Account(ctx, in.Voteorder.Delegator)
	if errors.Is(err, model.ErrAccountNotFound) {
		return fail(KindVotingPower, "account %s not found", in.Voteorder.Delegator)
	}
	if err != nil {
		return fmt.Errorf("load account %s: %w", in.Voteorder.Delegator, err)
	}
	return compareMode(KindVotingPower, r.Mode, float64(account.VotingPower), r.Value)
}

// Payout compares the post payout, pending plus paid, with Value.
type Payout struct {
	Mode  Mode    `json:"mode"`
	Value float64 `json:"value"`
}

// Kind returns KindPayout.
func (r *Payout) Kind() string { return KindPayout }

func (r *Payout) check() error { return checkComparison(r.Mode) }

// Validate compares the post payout with the threshold.
func (r *Payout) Validate(_ context.Context, in Input, _ Context) error {
	return compareMode(KindPayout, r.Mode, in.Post.PendingPayout+in.Post.TotalPayout, r.Value)
}

// VotesCount compares the number of votes already on the post with Value.
type VotesCount struct {
	Mode  Mode `json:"mode"`
	Value int  `json:"value"`
}

// Kind returns KindVotesCount.
func (r *VotesCount) Kind() string { return KindVotesCount }

func (r *VotesCount) check() error { return checkComparison(r.Mode) }

// Validate compares the number of votes on the post with the threshold.
func (r *VotesCount) Validate(_ context.Context, in Input, _ Context) error {
	return compareMode(KindVotesCount, r.Mode, float64(len(in.Post.ActiveVotes)), float64(r.Value))
}
