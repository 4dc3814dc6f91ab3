package rules

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/model"
	"golang.org/x/sync/errgroup"
)

// MaxWeight is the largest absolute vote weight, in basis points.
const MaxWeight = 10000

const (
	// ReasonWeightExceedsLimit rejects voteorders above the ruleset total weight.
	ReasonWeightExceedsLimit = "weight exceeds ruleset limit"
	// ReasonPostNotFound rejects voteorders for posts the ledger does not know.
	ReasonPostNotFound = "post not found"
)

// Verdict is the outcome of evaluating one voteorder.
type Verdict struct {
	Passed  bool
	Failure *Failure
}

// Reason returns the failure reason, or an empty string for a passed verdict.
func (v Verdict) Reason() string {
	if v.Failure == nil {
		return ""
	}
	return v.Failure.Reason
}

func rejected(f *Failure) Verdict {
	return Verdict{Failure: f}
}

// Engine evaluates voteorders against rulesets.
type Engine struct{}

// NewEngine creates an Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate checks order against rs. Validation failures are reported in the
// verdict; the error is reserved for transport failures of rc.
func (e *Engine) Evaluate(ctx context.Context, order model.Voteorder, rs Ruleset, rc Context) (Verdict, error) {
	if f := precheck(order, rs); f != nil {
		return rejected(f), nil
	}

	post, err := rc.Post(ctx, order.Author, order.Permlink)
	if errors.Is(err, model.ErrPostNotFound) {
		return rejected(&Failure{Reason: ReasonPostNotFound}), nil
	}
	if err != nil {
		return Verdict{}, fmt.Errorf("load post %s/%s: %w", order.Author, order.Permlink, err)
	}

	in := Input{Voteorder: order, Post: post}
	outcomes := make([]*Failure, len(rs.Rules))
	g, gctx := errgroup.WithContext(ctx)
	for i, rule := range rs.Rules {
		g.Go(func() error {
			err := rule.Validate(gctx, in, rc)
			if err == nil {
				return nil
			}
			var failure *Failure
			if errors.As(err, &failure) {
				outcomes[i] = failure
				return nil
			}
			return fmt.Errorf("%s rule: %w", rule.Kind(), err)
		})
	}
	if err := g.Wait(); err != nil {
		return Verdict{}, err
	}

	for _, failure := range outcomes {
		if failure != nil {
			return rejected(failure), nil
		}
	}
	return Verdict{Passed: true}, nil
}

func precheck(order model.Voteorder, rs Ruleset) *Failure {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"delegator", order.Delegator},
		{"voter", order.Voter},
		{"ruleset", order.Ruleset},
		{"author", order.Author},
		{"permlink", order.Permlink},
	} {
		if field.value == "" {
			return &Failure{Reason: "missing " + field.name}
		}
	}

	w := order.Weight
	switch {
	case math.IsNaN(w) || math.IsInf(w, 0):
		return &Failure{Reason: "weight is not a finite number"}
	case math.Trunc(w) != w:
		return &Failure{Reason: "weight must be an integer"}
	case math.Abs(w) > MaxWeight:
		return &Failure{Reason: fmt.Sprintf("weight must be within [-%d, %d]", MaxWeight, MaxWeight)}
	case w == 0:
		return &Failure{Reason: "weight must not be zero"}
	}

	if rs.TotalWeight != nil && math.Abs(w) > float64(*rs.TotalWeight) {
		return &Failure{Reason: ReasonWeightExceedsLimit}
	}
	return nil
}
