package rules

import (
	"errors"
	"fmt"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const kindField = "rule"

// ErrUnknownRule is returned when a rule tag has no registered factory.
var ErrUnknownRule = errors.New("unknown rule")

// Factory returns a zero rule of one kind, ready to be decoded into.
type Factory func() Rule

// Registry maps rule tags to factories. Adding a variant is one Register call.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds kind to factory, replacing any previous binding.
func (r *Registry) Register(kind string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = factory
}

// Decode builds a rule from its tagged JSON form.
func (r *Registry) Decode(data []byte) (Rule, error) {
	var tag struct {
		Rule *string `json:"rule"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("decode rule tag: %w", err)
	}
	if tag.Rule == nil {
		return nil, fmt.Errorf("decode rule: missing %q field", kindField)
	}

	r.mu.RLock()
	factory, ok := r.factories[*tag.Rule]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownRule, *tag.Rule)
	}

	rule := factory()
	if err := json.Unmarshal(data, rule); err != nil {
		return nil, fmt.Errorf("decode %s rule: %w", *tag.Rule, err)
	}
	if c, ok := rule.(interface{ check() error }); ok {
		if err := c.check(); err != nil {
			return nil, fmt.Errorf("decode %s rule: %w", *tag.Rule, err)
		}
	}
	return rule, nil
}

// Encode renders a rule in its tagged JSON form.
func (r *Registry) Encode(rule Rule) ([]byte, error) {
	body, err := json.Marshal(rule)
	if err != nil {
		return nil, fmt.Errorf("encode %s rule: %w", rule.Kind(), err)
	}
	fields := map[string]jsoniter.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode %s rule: %w", rule.Kind(), err)
	}
	kind, err := json.Marshal(rule.Kind())
	if err != nil {
		return nil, err
	}
	fields[kindField] = kind
	return json.Marshal(fields)
}

// Default holds every built-in rule variant.
var Default = newDefaultRegistry()

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(KindAuthors, func() Rule { return &Authors{} })
	r.Register(KindTags, func() Rule { return &Tags{} })
	r.Register(KindCustomRPC, func() Rule { return &CustomRPC{} })
	r.Register(KindWeight, func() Rule { return &Weight{} })
	r.Register(KindVotingPower, func() Rule { return &VotingPower{} })
	r.Register(KindPayout, func() Rule { return &Payout{} })
	r.Register(KindVotesCount, func() Rule { return &VotesCount{} })
	r.Register(KindExpirationDate, func() Rule { return &ExpirationDate{} })
	r.Register(KindWeightForPeriod, func() Rule { return &WeightForPeriod{} })
	return r
}
