package rules

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// Ruleset is a named set of rules a voter may vote under. Rules are ANDed.
type Ruleset struct {
	Name string
	// TotalWeight bounds the absolute weight of every voteorder when set.
	TotalWeight *int
	Rules       []Rule
}

type rulesetJSON struct {
	Name        *string               `json:"name"`
	TotalWeight *int                  `json:"total_weight,omitempty"`
	Rules       []jsoniter.RawMessage `json:"rules"`
}

// MarshalJSON encodes the ruleset with tagged rules.
func (r Ruleset) MarshalJSON() ([]byte, error) {
	name := r.Name
	out := rulesetJSON{Name: &name, TotalWeight: r.TotalWeight, Rules: make([]jsoniter.RawMessage, 0, len(r.Rules))}
	for _, rule := range r.Rules {
		data, err := Default.Encode(rule)
		if err != nil {
			return nil, err
		}
		out.Rules = append(out.Rules, data)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes rules through the Default registry.
func (r *Ruleset) UnmarshalJSON(data []byte) error {
	var in rulesetJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode ruleset: %w", err)
	}
	if in.Name == nil {
		return errors.New("decode ruleset: missing name")
	}
	if in.Rules == nil {
		return fmt.Errorf("decode ruleset %q: missing rules", *in.Name)
	}

	decoded := Ruleset{Name: *in.Name, TotalWeight: in.TotalWeight}
	for i, raw := range in.Rules {
		rule, err := Default.Decode(raw)
		if err != nil {
			return fmt.Errorf("decode ruleset %q rule %d: %w", *in.Name, i, err)
		}
		decoded.Rules = append(decoded.Rules, rule)
	}
	*r = decoded
	return nil
}
