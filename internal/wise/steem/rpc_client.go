package steem

import (
	"context"
	"time"
)

// RPCClient wraps a Caller with typed condenser_api calls and metrics.
type RPCClient struct {
	caller     Caller
	rpcMetrics RPCMetrics
}

// NewRPCClient constructs an instrumented RPC client.
func NewRPCClient(caller Caller, rpcMetrics RPCMetrics) *RPCClient {
	return &RPCClient{
		caller:     caller,
		rpcMetrics: rpcMetrics,
	}
}

// GetAccountHistory returns up to limit history entries of account ending at from.
func (r *RPCClient) GetAccountHistory(ctx context.Context, account string, from int64, limit int) (entries []HistoryEntry, err error) {
	started := time.Now()
	defer func() {
		r.rpcMetrics.Observe("get_account_history", err, started)
	}()
	err = r.caller.Call(ctx, "condenser_api.get_account_history", []any{account, from, limit}, &entries)
	return entries, err
}

// GetBlock returns the block at height num, or nil when it does not exist yet.
func (r *RPCClient) GetBlock(ctx context.Context, num uint64) (block *Block, err error) {
	started := time.Now()
	defer func() {
		r.rpcMetrics.Observe("get_block", err, started)
	}()
	err = r.caller.Call(ctx, "condenser_api.get_block", []any{num}, &block)
	return block, err
}

// GetDynamicGlobalProperties returns the current chain properties.
func (r *RPCClient) GetDynamicGlobalProperties(ctx context.Context) (props DynamicGlobalProperties, err error) {
	started := time.Now()
	defer func() {
		r.rpcMetrics.Observe("get_dynamic_global_properties", err, started)
	}()
	err = r.caller.Call(ctx, "condenser_api.get_dynamic_global_properties", []any{}, &props)
	return props, err
}

// GetContent returns a post. Unknown posts come back with an empty author.
func (r *RPCClient) GetContent(ctx context.Context, author, permlink string) (content Content, err error) {
	started := time.Now()
	defer func() {
		r.rpcMetrics.Observe("get_content", err, started)
	}()
	err = r.caller.Call(ctx, "condenser_api.get_content", []any{author, permlink}, &content)
	return content, err
}

// GetAccounts returns the named accounts that exist.
func (r *RPCClient) GetAccounts(ctx context.Context, names ...string) (accounts []Account, err error) {
	started := time.Now()
	defer func() {
		r.rpcMetrics.Observe("get_accounts", err, started)
	}()
	err = r.caller.Call(ctx, "condenser_api.get_accounts", []any{names}, &accounts)
	return accounts, err
}
