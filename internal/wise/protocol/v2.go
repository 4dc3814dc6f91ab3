package protocol

import (
	"fmt"
	"strings"

	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/rules"
)

// V2Protocol is the protocol marker of the V2 revision.
const V2Protocol = "wise/v2"

type envelope struct {
	Protocol string `json:"protocol"`
	Name     string `json:"name"`
}

type setRulesV2 struct {
	envelope
	Voter    *string          `json:"voter"`
	Rulesets *[]rules.Ruleset `json:"rulesets"`
}

type sendVoteorderV2 struct {
	envelope
	Delegator *string  `json:"delegator"`
	Ruleset   *string  `json:"ruleset"`
	Author    *string  `json:"author"`
	Permlink  *string  `json:"permlink"`
	Weight    *float64 `json:"weight"`
}

type confirmVotesV2 struct {
	envelope
	Entries *[]confirmationV2 `json:"entries"`
}

type confirmationV2 struct {
	VoteorderTxID  *string `json:"voteorder_tx_id"`
	OperationIndex *uint32 `json:"operation_index"`
	Accepted       *bool   `json:"accepted"`
	Voter          string  `json:"voter,omitempty"`
	Weight         int     `json:"weight,omitempty"`
	Msg            string  `json:"msg,omitempty"`
}

// V2 handles the "wise/v2" revision. Unknown names and missing or mistyped
// fields are rejected before any semantic validation.
type V2 struct{}

// Handles implements Handler.
func (V2) Handles(protocol string) bool { return protocol == V2Protocol }

// Decode implements Handler.
func (V2) Decode(name string, payload []byte) (Command, error) {
	switch name {
	case SetRulesName:
		var w setRulesV2
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if err := required(name, field{"voter", w.Voter != nil}, field{"rulesets", w.Rulesets != nil}); err != nil {
			return nil, err
		}
		cmd := SetRules{Voter: *w.Voter}
		if len(*w.Rulesets) > 0 {
			cmd.Rulesets = *w.Rulesets
		}
		return cmd, nil

	case SendVoteorderName:
		var w sendVoteorderV2
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if err := required(name,
			field{"delegator", w.Delegator != nil},
			field{"ruleset", w.Ruleset != nil},
			field{"author", w.Author != nil},
			field{"permlink", w.Permlink != nil},
			field{"weight", w.Weight != nil},
		); err != nil {
			return nil, err
		}
		return SendVoteorder{
			Delegator: *w.Delegator,
			Ruleset:   *w.Ruleset,
			Author:    *w.Author,
			Permlink:  *w.Permlink,
			Weight:    *w.Weight,
		}, nil

	case ConfirmVotesName:
		var w confirmVotesV2
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if err := required(name, field{"entries", w.Entries != nil}); err != nil {
			return nil, err
		}
		var cmd ConfirmVotes
		for i, e := range *w.Entries {
			if err := required(fmt.Sprintf("%s entry %d", name, i),
				field{"voteorder_tx_id", e.VoteorderTxID != nil},
				field{"operation_index", e.OperationIndex != nil},
				field{"accepted", e.Accepted != nil},
			); err != nil {
				return nil, err
			}
			cmd.Entries = append(cmd.Entries, Confirmation{
				VoteorderTxID:  *e.VoteorderTxID,
				OperationIndex: *e.OperationIndex,
				Accepted:       *e.Accepted,
				Voter:          e.Voter,
				Weight:         e.Weight,
				Msg:            e.Msg,
			})
		}
		return cmd, nil
	}
	return nil, fmt.Errorf("unknown command name %q", name)
}

// Encode implements Handler.
func (V2) Encode(cmd Command) ([]byte, error) {
	env := envelope{Protocol: V2Protocol, Name: cmd.Name()}
	switch c := cmd.(type) {
	case SetRules:
		rulesets := c.Rulesets
		if rulesets == nil {
			rulesets = []rules.Ruleset{}
		}
		return json.Marshal(setRulesV2{envelope: env, Voter: &c.Voter, Rulesets: &rulesets})

	case SendVoteorder:
		return json.Marshal(sendVoteorderV2{
			envelope:  env,
			Delegator: &c.Delegator,
			Ruleset:   &c.Ruleset,
			Author:    &c.Author,
			Permlink:  &c.Permlink,
			Weight:    &c.Weight,
		})

	case ConfirmVotes:
		entries := make([]confirmationV2, 0, len(c.Entries))
		for _, e := range c.Entries {
			entries = append(entries, confirmationV2{
				VoteorderTxID:  &e.VoteorderTxID,
				OperationIndex: &e.OperationIndex,
				Accepted:       &e.Accepted,
				Voter:          e.Voter,
				Weight:         e.Weight,
				Msg:            e.Msg,
			})
		}
		return json.Marshal(confirmVotesV2{envelope: env, Entries: &entries})
	}
	return nil, fmt.Errorf("unsupported command %T", cmd)
}

type field struct {
	name    string
	present bool
}

func required(name string, fields ...field) error {
	var missing []string
	for _, f := range fields {
		if !f.present {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: missing %s", name, strings.Join(missing, ", "))
	}
	return nil
}
