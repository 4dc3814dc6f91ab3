package steem

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/model"
)

type broadcastParams struct {
	Account    string      `json:"account"`
	Operations []Operation `json:"operations"`
}

type broadcastResult struct {
	ID       string `json:"id"`
	BlockNum uint64 `json:"block_num"`
	TrxNum   uint32 `json:"trx_num"`
}

// SignerBroadcaster submits transactions through a signing proxy that holds
// the delegator's posting key.
type SignerBroadcaster struct {
	caller     Caller
	account    string
	rpcMetrics RPCMetrics
}

// NewSignerBroadcaster creates a broadcaster signing as account.
func NewSignerBroadcaster(caller Caller, account string, rpcMetrics RPCMetrics) *SignerBroadcaster {
	return &SignerBroadcaster{caller: caller, account: account, rpcMetrics: rpcMetrics}
}

// Submit broadcasts ops as one transaction and returns where it landed.
func (b *SignerBroadcaster) Submit(ctx context.Context, ops []model.RawOperation) (moment model.Moment, err error) {
	started := time.Now()
	defer func() {
		b.rpcMetrics.Observe("broadcast", err, started)
	}()

	if len(ops) == 0 {
		return model.Moment{}, errors.New("empty transaction")
	}
	params := broadcastParams{Account: b.account, Operations: make([]Operation, 0, len(ops))}
	for _, raw := range ops {
		op, convErr := fromRawOperation(raw)
		if convErr != nil {
			return model.Moment{}, convErr
		}
		params.Operations = append(params.Operations, op)
	}

	var result broadcastResult
	if err = b.caller.Call(ctx, "wise_signer.broadcast", params, &result); err != nil {
		return model.Moment{}, fmt.Errorf("broadcast %d operations: %w", len(ops), err)
	}
	return model.NewMoment(result.BlockNum, result.TrxNum, 0), nil
}

// DryRunBroadcaster logs transactions instead of submitting them.
type DryRunBroadcaster struct {
	logger *zap.Logger
}

// NewDryRunBroadcaster creates a DryRunBroadcaster.
func NewDryRunBroadcaster(logger *zap.Logger) *DryRunBroadcaster {
	return &DryRunBroadcaster{logger: logger}
}

// Submit logs ops and reports model.Now as the commit position.
func (b *DryRunBroadcaster) Submit(_ context.Context, ops []model.RawOperation) (model.Moment, error) {
	for _, raw := range ops {
		op, err := fromRawOperation(raw)
		if err != nil {
			return model.Moment{}, err
		}
		b.logger.Info("dry run: operation not broadcast", zap.String("type", op.Name), zap.ByteString("payload", op.Payload))
	}
	return model.Now, nil
}
