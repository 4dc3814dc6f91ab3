package steem

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/spf13/cast"

	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/model"
	"github.com/goodnatureofminers/wisedelegator-backend/pkg/pipeline"
	"github.com/goodnatureofminers/wisedelegator-backend/pkg/safe"
)

// ErrBlockNotAvailable is returned for blocks the node has not produced yet.
var ErrBlockNotAvailable = errors.New("block not available yet")

// Source reads the ledger state the synchronizer needs.
type Source struct {
	rpc *RPCClient

	newCaller func(endpoint string) Caller
	mu        sync.Mutex
	callers   map[string]Caller
}

// NewSource creates a Source on top of rpc.
func NewSource(rpc *RPCClient) *Source {
	return &Source{
		rpc:       rpc,
		newCaller: func(endpoint string) Caller { return NewHTTPTransport(endpoint, 0) },
		callers:   make(map[string]Caller),
	}
}

// HistoryPage returns up to limit operations of account with indexes ending
// at from, oldest first. A negative from asks for the newest operations.
func (s *Source) HistoryPage(ctx context.Context, account string, from int64, limit int) ([]pipeline.Entry[model.RawOperation], error) {
	if limit <= 0 {
		return nil, fmt.Errorf("invalid history limit %d", limit)
	}
	// The node rejects requests whose limit exceeds the start index.
	reqLimit := limit
	if from >= 0 && int64(reqLimit) > from {
		reqLimit = int(from)
	}

	entries, err := s.rpc.GetAccountHistory(ctx, account, from, reqLimit)
	if err != nil {
		return nil, fmt.Errorf("get account history of %s from %d: %w", account, from, err)
	}
	slices.SortFunc(entries, func(a, b HistoryEntry) int { return cmp.Compare(a.Index, b.Index) })
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	page := make([]pipeline.Entry[model.RawOperation], 0, len(entries))
	for _, e := range entries {
		item := e.Item
		moment := model.NewMoment(item.Block, item.TrxInBlock, item.OpInTrx)
		raw, err := toRawOperation(item.Op, moment, item.TrxID, item.Timestamp.Time)
		if err != nil {
			return nil, err
		}
		page = append(page, pipeline.Entry[model.RawOperation]{Index: e.Index, Value: raw})
	}
	return page, nil
}

// Block returns block num flattened into its operations.
func (s *Source) Block(ctx context.Context, num uint64) (model.Block, error) {
	block, err := s.rpc.GetBlock(ctx, num)
	if err != nil {
		return model.Block{}, fmt.Errorf("get block %d: %w", num, err)
	}
	if block == nil {
		return model.Block{}, fmt.Errorf("block %d: %w", num, ErrBlockNotAvailable)
	}

	out := model.Block{Number: num, Timestamp: block.Timestamp.Time}
	for txIndex, tx := range block.Transactions {
		txNum, err := safe.Uint32(txIndex)
		if err != nil {
			return model.Block{}, fmt.Errorf("block %d: %w", num, err)
		}
		txID := ""
		if txIndex < len(block.TransactionIDs) {
			txID = block.TransactionIDs[txIndex]
		}
		for opIndex, op := range tx.Operations {
			opNum, err := safe.Uint32(opIndex)
			if err != nil {
				return model.Block{}, fmt.Errorf("block %d: %w", num, err)
			}
			raw, err := toRawOperation(op, model.NewMoment(num, txNum, opNum), txID, block.Timestamp.Time)
			if err != nil {
				return model.Block{}, err
			}
			out.Operations = append(out.Operations, raw)
		}
	}
	return out, nil
}

// HeadBlock returns the number of the newest block.
func (s *Source) HeadBlock(ctx context.Context) (uint64, error) {
	props, err := s.rpc.GetDynamicGlobalProperties(ctx)
	if err != nil {
		return 0, fmt.Errorf("get dynamic global properties: %w", err)
	}
	return props.HeadBlockNumber, nil
}

// Post returns the post author/permlink or model.ErrPostNotFound.
func (s *Source) Post(ctx context.Context, author, permlink string) (model.Post, error) {
	content, err := s.rpc.GetContent(ctx, author, permlink)
	if err != nil {
		return model.Post{}, fmt.Errorf("get content %s/%s: %w", author, permlink, err)
	}
	if content.Author == "" {
		return model.Post{}, fmt.Errorf("%s/%s: %w", author, permlink, model.ErrPostNotFound)
	}
	return toPost(content)
}

// Account returns the account name or model.ErrAccountNotFound.
func (s *Source) Account(ctx context.Context, name string) (model.Account, error) {
	accounts, err := s.rpc.GetAccounts(ctx, name)
	if err != nil {
		return model.Account{}, fmt.Errorf("get account %s: %w", name, err)
	}
	for _, a := range accounts {
		if a.Name != name {
			continue
		}
		power, err := cast.ToInt64E(a.VotingPower)
		if err != nil {
			return model.Account{}, fmt.Errorf("parse voting power of %s: %w", name, err)
		}
		return model.Account{Name: a.Name, VotingPower: power}, nil
	}
	return model.Account{}, fmt.Errorf("%s: %w", name, model.ErrAccountNotFound)
}

// CallRPC calls method on an arbitrary JSON-RPC endpoint.
func (s *Source) CallRPC(ctx context.Context, endpoint, method string, params, result any) error {
	s.mu.Lock()
	caller, ok := s.callers[endpoint]
	if !ok {
		caller = s.newCaller(endpoint)
		s.callers[endpoint] = caller
	}
	s.mu.Unlock()

	return caller.Call(ctx, method, params, result)
}
