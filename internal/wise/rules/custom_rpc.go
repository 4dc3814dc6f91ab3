package rules

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// KindCustomRPC tags the CustomRPC rule.
const KindCustomRPC = "custom_rpc"

// CustomRPC delegates the decision to an external JSON-RPC endpoint.
type CustomRPC struct {
	Host   string `json:"host"`
	Port   int    `json:"port"`
	Path   string `json:"path"`
	Method string `json:"method"`
}

type customRPCParams struct {
	Delegator string  `json:"delegator"`
	Voter     string  `json:"voter"`
	Ruleset   string  `json:"ruleset"`
	Author    string  `json:"author"`
	Permlink  string  `json:"permlink"`
	Weight    float64 `json:"weight"`
}

type customRPCResult struct {
	Passed bool   `json:"passed"`
	Reason string `json:"reason"`
}

// Kind returns KindCustomRPC.
func (r *CustomRPC) Kind() string { return KindCustomRPC }

func (r *CustomRPC) check() error {
	if r.Host == "" || r.Method == "" {
		return errors.New("host and method are required")
	}
	if r.Port <= 0 || r.Port > 65535 {
		return fmt.Errorf("invalid port %d", r.Port)
	}
	return nil
}

// Endpoint returns the URL the rule calls.
func (r *CustomRPC) Endpoint() string {
	return "http://" + net.JoinHostPort(r.Host, strconv.Itoa(r.Port)) + "/" + strings.TrimPrefix(r.Path, "/")
}

// Validate asks the remote endpoint to judge the voteorder.
func (r *CustomRPC) Validate(ctx context.Context, in Input, rc Context) error {
	order := in.Voteorder
	params := customRPCParams{
		Delegator: order.Delegator,
		Voter:     order.Voter,
		Ruleset:   order.Ruleset,
		Author:    order.Author,
		Permlink:  order.Permlink,
		Weight:    order.Weight,
	}

	var result customRPCResult
	if err := rc.CallRPC(ctx, r.Endpoint(), r.Method, params, &result); err != nil {
		return fmt.Errorf("custom rpc %s: %w", r.Endpoint(), err)
	}
	if !result.Passed {
		if result.Reason == "" {
			return fail(KindCustomRPC, "rejected by %s", r.Endpoint())
		}
		return fail(KindCustomRPC, "%s", result.Reason)
	}
	return nil
}
