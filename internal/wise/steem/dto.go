package steem

import (
	"fmt"
	"slices"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cast"

	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/model"
)

const timeLayout = "2006-01-02T15:04:05"

// Time is a node timestamp, always UTC and without zone suffix on the wire.
type Time struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return fmt.Errorf("parse time %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(timeLayout))
}

// Operation is a [name, payload] pair.
type Operation struct {
	Name    string
	Payload jsoniter.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Operation) UnmarshalJSON(data []byte) error {
	var pair []jsoniter.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decode operation: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("decode operation: expected [name, payload], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &o.Name); err != nil {
		return fmt.Errorf("decode operation name: %w", err)
	}
	o.Payload = pair[1]
	return nil
}

// MarshalJSON implements json.Marshaler.
func (o Operation) MarshalJSON() ([]byte, error) {
	name, err := json.Marshal(o.Name)
	if err != nil {
		return nil, err
	}
	return json.Marshal([]jsoniter.RawMessage{name, o.Payload})
}

type customJSONPayload struct {
	RequiredAuths        []string `json:"required_auths"`
	RequiredPostingAuths []string `json:"required_posting_auths"`
	ID                   string   `json:"id"`
	JSON                 string   `json:"json"`
}

type votePayload struct {
	Voter    string `json:"voter"`
	Author   string `json:"author"`
	Permlink string `json:"permlink"`
	Weight   int16  `json:"weight"`
}

// HistoryItem is one account history record.
type HistoryItem struct {
	TrxID      string    `json:"trx_id"`
	Block      uint64    `json:"block"`
	TrxInBlock uint32    `json:"trx_in_block"`
	OpInTrx    uint32    `json:"op_in_trx"`
	VirtualOp  uint64    `json:"virtual_op"`
	Timestamp  Time      `json:"timestamp"`
	Op         Operation `json:"op"`
}

// HistoryEntry is an [index, item] pair of get_account_history.
type HistoryEntry struct {
	Index int64
	Item  HistoryItem
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *HistoryEntry) UnmarshalJSON(data []byte) error {
	var pair []jsoniter.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decode history entry: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("decode history entry: expected [index, op], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &e.Index); err != nil {
		return fmt.Errorf("decode history index: %w", err)
	}
	return json.Unmarshal(pair[1], &e.Item)
}

// Transaction is a signed transaction inside a block.
type Transaction struct {
	Operations []Operation `json:"operations"`
}

// Block is the get_block result.
type Block struct {
	Previous       string        `json:"previous"`
	Timestamp      Time          `json:"timestamp"`
	Transactions   []Transaction `json:"transactions"`
	TransactionIDs []string      `json:"transaction_ids"`
}

// DynamicGlobalProperties is the subset of get_dynamic_global_properties used.
type DynamicGlobalProperties struct {
	HeadBlockNumber          uint64 `json:"head_block_number"`
	LastIrreversibleBlockNum uint64 `json:"last_irreversible_block_num"`
	Time                     Time   `json:"time"`
}

// ActiveVote is one vote listed by get_content.
type ActiveVote struct {
	Voter   string `json:"voter"`
	Percent any    `json:"percent"`
}

// Content is the subset of get_content used.
type Content struct {
	Author             string       `json:"author"`
	Permlink           string       `json:"permlink"`
	Category           string       `json:"category"`
	JSONMetadata       string       `json:"json_metadata"`
	Created            Time         `json:"created"`
	ActiveVotes        []ActiveVote `json:"active_votes"`
	PendingPayoutValue string       `json:"pending_payout_value"`
	TotalPayoutValue   string       `json:"total_payout_value"`
}

// Account is the subset of get_accounts used.
type Account struct {
	Name        string `json:"name"`
	VotingPower any    `json:"voting_power"`
}

// parseAsset reads the amount of an asset string like "1.234 SBD".
func parseAsset(s string) (float64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, nil
	}
	return cast.ToFloat64E(fields[0])
}

func toRawOperation(op Operation, moment model.Moment, txID string, ts time.Time) (model.RawOperation, error) {
	raw := model.RawOperation{
		Moment:    moment,
		TxID:      txID,
		Timestamp: ts,
		Type:      model.OperationType(op.Name),
	}
	switch raw.Type {
	case model.CustomJSONOperation:
		var p customJSONPayload
		if err := json.Unmarshal(op.Payload, &p); err != nil {
			return raw, fmt.Errorf("decode custom_json at %s: %w", moment, err)
		}
		raw.CustomJSON = &model.CustomJSON{
			ID:                   p.ID,
			RequiredAuths:        p.RequiredAuths,
			RequiredPostingAuths: p.RequiredPostingAuths,
			JSON:                 p.JSON,
		}
	case model.VoteOperation:
		var p votePayload
		if err := json.Unmarshal(op.Payload, &p); err != nil {
			return raw, fmt.Errorf("decode vote at %s: %w", moment, err)
		}
		raw.Vote = &model.Vote{Voter: p.Voter, Author: p.Author, Permlink: p.Permlink, Weight: p.Weight}
	}
	return raw, nil
}

func fromRawOperation(raw model.RawOperation) (Operation, error) {
	var payload any
	switch {
	case raw.Type == model.CustomJSONOperation && raw.CustomJSON != nil:
		p := customJSONPayload{
			RequiredAuths:        raw.CustomJSON.RequiredAuths,
			RequiredPostingAuths: raw.CustomJSON.RequiredPostingAuths,
			ID:                   raw.CustomJSON.ID,
			JSON:                 raw.CustomJSON.JSON,
		}
		if p.RequiredAuths == nil {
			p.RequiredAuths = []string{}
		}
		if p.RequiredPostingAuths == nil {
			p.RequiredPostingAuths = []string{}
		}
		payload = p
	case raw.Type == model.VoteOperation && raw.Vote != nil:
		payload = votePayload{Voter: raw.Vote.Voter, Author: raw.Vote.Author, Permlink: raw.Vote.Permlink, Weight: raw.Vote.Weight}
	default:
		return Operation{}, fmt.Errorf("unsupported operation %q", raw.Type)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Operation{}, err
	}
	return Operation{Name: string(raw.Type), Payload: data}, nil
}

func toPost(c Content) (model.Post, error) {
	pending, err := parseAsset(c.PendingPayoutValue)
	if err != nil {
		return model.Post{}, fmt.Errorf("parse pending payout %q: %w", c.PendingPayoutValue, err)
	}
	total, err := parseAsset(c.TotalPayoutValue)
	if err != nil {
		return model.Post{}, fmt.Errorf("parse total payout %q: %w", c.TotalPayoutValue, err)
	}

	post := model.Post{
		Author:        c.Author,
		Permlink:      c.Permlink,
		Tags:          postTags(c),
		PendingPayout: pending,
		TotalPayout:   total,
		Created:       c.Created.Time,
	}
	for _, v := range c.ActiveVotes {
		percent, err := cast.ToInt32E(v.Percent)
		if err != nil {
			return model.Post{}, fmt.Errorf("parse vote percent of %s: %w", v.Voter, err)
		}
		post.ActiveVotes = append(post.ActiveVotes, model.ActiveVote{Voter: v.Voter, Percent: percent})
	}
	return post, nil
}

func postTags(c Content) []string {
	var meta struct {
		Tags []string `json:"tags"`
	}
	var tags []string
	if c.Category != "" {
		tags = append(tags, c.Category)
	}
	// Malformed metadata is common on chain; the category still counts.
	if err := json.Unmarshal([]byte(c.JSONMetadata), &meta); err == nil {
		for _, tag := range meta.Tags {
			if tag != "" && !slices.Contains(tags, tag) {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}
