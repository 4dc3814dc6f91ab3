// Package validity tracks which rulesets a delegator granted to each voter
// over ledger history.
package validity

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/sasha-s/go-deadlock"

	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/model"
	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/protocol"
	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/rules"
	"github.com/goodnatureofminers/wisedelegator-backend/pkg/pipeline"
)

// ReasonNoSuchRuleset is the rejection reason for both lookup errors.
const ReasonNoSuchRuleset = "no such ruleset at specified moment"

var (
	// ErrNoRulesForVoter means no window covers the moment: the voter had no
	// rules from the delegator yet.
	ErrNoRulesForVoter = errors.New("voter had no rules at specified moment")
	// ErrRulesetNotFound means a window covers the moment but holds no ruleset
	// with the requested name. An emptied window reports this error too.
	ErrRulesetNotFound = errors.New(ReasonNoSuchRuleset)
)

// Window is the span during which one SetRules was in force for a voter.
// It covers moments m with ValidFrom < m <= ValidUntil.
type Window struct {
	Voter      string
	Rulesets   []rules.Ruleset
	ValidFrom  model.Moment
	ValidUntil model.Moment
}

// Contains reports whether m falls in the window.
func (w Window) Contains(m model.Moment) bool {
	return model.Compare(w.ValidFrom, m) < 0 && model.Compare(m, w.ValidUntil) <= 0
}

// Lookup finds a ruleset of the window by name.
func (w Window) Lookup(name string) (rules.Ruleset, bool) {
	for _, rs := range w.Rulesets {
		if rs.Name == name {
			return rs, true
		}
	}
	return rules.Ruleset{}, false
}

type grant struct {
	moment   model.Moment
	rulesets []rules.Ruleset
}

// Index holds the SetRules history of one delegator. It is written by a
// single goroutine and read concurrently.
type Index struct {
	delegator string

	mu      deadlock.RWMutex
	byVoter map[string][]grant
}

// NewIndex creates an empty index for delegator.
func NewIndex(delegator string) *Index {
	return &Index{delegator: delegator, byVoter: make(map[string][]grant)}
}

// Add records that the delegator set rulesets for voter at moment. Adding the
// same (voter, moment) twice keeps the first record and reports false.
func (i *Index) Add(voter string, rulesets []rules.Ruleset, moment model.Moment) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	grants := i.byVoter[voter]
	pos, found := slices.BinarySearchFunc(grants, moment, func(g grant, m model.Moment) int {
		return model.Compare(g.moment, m)
	})
	if found {
		return false
	}
	i.byVoter[voter] = slices.Insert(grants, pos, grant{moment: moment, rulesets: rulesets})
	return true
}

// AddOperation records op when it is a SetRules sent by the delegator.
func (i *Index) AddOperation(op protocol.Operation) bool {
	cmd, ok := op.Command.(protocol.SetRules)
	if !ok || op.Sender != i.delegator {
		return false
	}
	return i.Add(cmd.Voter, cmd.Rulesets, op.Moment)
}

// Windows returns the validity windows of voter ordered by ValidFrom.
func (i *Index) Windows(voter string) []Window {
	i.mu.RLock()
	defer i.mu.RUnlock()

	grants := i.byVoter[voter]
	windows := make([]Window, 0, len(grants))
	for k, g := range grants {
		until := model.Future
		if k+1 < len(grants) {
			until = grants[k+1].moment
		}
		windows = append(windows, Window{Voter: voter, Rulesets: g.rulesets, ValidFrom: g.moment, ValidUntil: until})
	}
	return windows
}

// Voters returns every voter the delegator ever set rules for.
func (i *Index) Voters() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	voters := make([]string, 0, len(i.byVoter))
	for voter := range i.byVoter {
		voters = append(voters, voter)
	}
	slices.Sort(voters)
	return voters
}

// RulesetValidAt returns the ruleset named name that was in force for voter
// at moment m. A ruleset set at exactly m is not yet in force.
func (i *Index) RulesetValidAt(voter, name string, m model.Moment) (rules.Ruleset, error) {
	for _, w := range i.Windows(voter) {
		if !w.Contains(m) {
			continue
		}
		rs, ok := w.Lookup(name)
		if !ok {
			return rules.Ruleset{}, fmt.Errorf("%w: %q for %s at %s", ErrRulesetNotFound, name, voter, m)
		}
		return rs, nil
	}
	return rules.Ruleset{}, fmt.Errorf("%w: %s at %s", ErrNoRulesForVoter, voter, m)
}

// Build fills the index from a stream of decoded operations, in any order.
func (i *Index) Build(ctx context.Context, ops *pipeline.Stream[protocol.Operation]) error {
	return pipeline.Take(ctx, ops, func(op protocol.Operation) (bool, error) {
		i.AddOperation(op)
		return true, nil
	})
}
