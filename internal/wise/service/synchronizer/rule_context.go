package synchronizer

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/model"
)

// ruleContext answers rule queries from the ledger and from the delegator's
// published confirmations.
type ruleContext struct {
	ledger        Ledger
	delegator     string
	confirmations *confirmations
}

func (c *ruleContext) Post(ctx context.Context, author, permlink string) (model.Post, error) {
	return c.ledger.Post(ctx, author, permlink)
}

func (c *ruleContext) Account(ctx context.Context, name string) (model.Account, error) {
	return c.ledger.Account(ctx, name)
}

func (c *ruleContext) WeightCast(_ context.Context, delegator, voter string, since time.Time, before model.Moment) (float64, error) {
	if delegator != c.delegator {
		return 0, fmt.Errorf("no confirmations tracked for delegator %s", delegator)
	}
	return c.confirmations.weightCast(voter, since, before), nil
}

func (c *ruleContext) CallRPC(ctx context.Context, endpoint, method string, params, result any) error {
	return c.ledger.CallRPC(ctx, endpoint, method, params, result)
}
