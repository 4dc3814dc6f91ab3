// Package steem reads and writes the Steem ledger over JSON-RPC.
package steem

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/ratelimit"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultHTTPTimeout = 30 * time.Second

// RPCError is an error object returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	ID     uint64              `json:"id"`
	Result jsoniter.RawMessage `json:"result"`
	Error  *RPCError           `json:"error"`
}

// HTTPTransport sends JSON-RPC 2.0 requests over HTTP.
type HTTPTransport struct {
	url     string
	client  *http.Client
	limiter ratelimit.Limiter
	nextID  atomic.Uint64
}

// NewHTTPTransport creates a transport for url issuing at most rps requests
// per second. A non-positive rps disables the limit.
func NewHTTPTransport(url string, rps int) *HTTPTransport {
	limiter := ratelimit.NewUnlimited()
	if rps > 0 {
		limiter = ratelimit.New(rps)
	}
	return &HTTPTransport{
		url:     url,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		limiter: limiter,
	}
}

// Call implements Caller.
func (t *HTTPTransport) Call(ctx context.Context, method string, params, result any) error {
	id := t.nextID.Add(1)
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}

	t.limiter.Take()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %s", method, resp.Status)
	}

	var decoded rpcResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if decoded.Error != nil {
		return fmt.Errorf("%s: %w", method, decoded.Error)
	}
	if decoded.ID != id {
		return fmt.Errorf("%s: response id %d does not match request id %d", method, decoded.ID, id)
	}
	if result == nil {
		return nil
	}
	if len(decoded.Result) == 0 {
		return errors.New(method + ": empty result")
	}
	if err := json.Unmarshal(decoded.Result, result); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}
