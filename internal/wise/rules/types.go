package rules

import (
	"context"
	"time"

	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Context answers the read-only ledger queries rules need. Implementations
	// must be safe for concurrent use.
	Context interface {
		Post(ctx context.Context, author, permlink string) (model.Post, error)
		Account(ctx context.Context, name string) (model.Account, error)
		// WeightCast sums the absolute weight confirmed for voter by delegator
		// from since up to, but excluding, before.
		WeightCast(ctx context.Context, delegator, voter string, since time.Time, before model.Moment) (float64, error)
		CallRPC(ctx context.Context, endpoint, method string, params, result any) error
	}

	// Rule is one predicate over a voteorder. A rule returns a *Failure when
	// the voteorder does not satisfy it; any other error is a transport error.
	Rule interface {
		Kind() string
		Validate(ctx context.Context, in Input, rc Context) error
	}
)
