package protocol

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNotApplicable is returned for ledger operations that carry no wise command.
var ErrNotApplicable = errors.New("operation is not a wise command")

// DecodeError reports a wise operation whose payload could not be decoded.
// It concerns that one operation only.
type DecodeError struct {
	Moment model.Moment
	TxID   string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode wise operation at %s (tx %s): %v", e.Moment, e.TxID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Handler decodes and encodes one protocol revision.
type Handler interface {
	// Handles reports whether the handler understands the protocol marker.
	Handles(protocol string) bool
	Decode(name string, payload []byte) (Command, error)
	Encode(cmd Command) ([]byte, error)
}

// Codec dispatches wise payloads to the first handler that accepts them.
// The first handler also encodes outgoing commands.
type Codec struct {
	handlers []Handler
}

// NewCodec creates a codec trying handlers in order. Without handlers only
// V2 is understood.
func NewCodec(handlers ...Handler) *Codec {
	if len(handlers) == 0 {
		handlers = []Handler{V2{}}
	}
	return &Codec{handlers: handlers}
}

// Decode extracts the wise command of raw.
func (c *Codec) Decode(raw model.RawOperation) (Operation, error) {
	if raw.Type != model.CustomJSONOperation || raw.CustomJSON == nil || raw.CustomJSON.ID != CustomJSONID {
		return Operation{}, ErrNotApplicable
	}
	decodeErr := func(err error) error {
		return &DecodeError{Moment: raw.Moment, TxID: raw.TxID, Err: err}
	}

	sender := raw.CustomJSON.Sender()
	if sender == "" {
		return Operation{}, decodeErr(errors.New("operation has no authorizing account"))
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw.CustomJSON.JSON), &env); err != nil {
		return Operation{}, decodeErr(fmt.Errorf("parse payload: %w", err))
	}

	for _, h := range c.handlers {
		if !h.Handles(env.Protocol) {
			continue
		}
		cmd, err := h.Decode(env.Name, []byte(raw.CustomJSON.JSON))
		if err != nil {
			return Operation{}, decodeErr(err)
		}
		return Operation{
			Moment:    raw.Moment,
			TxID:      raw.TxID,
			Timestamp: raw.Timestamp,
			Sender:    sender,
			Command:   cmd,
		}, nil
	}
	return Operation{}, decodeErr(fmt.Errorf("unsupported protocol %q", env.Protocol))
}

// Encode renders cmd as a custom_json operation authorized by sender.
func (c *Codec) Encode(sender string, cmd Command) (model.RawOperation, error) {
	payload, err := c.handlers[0].Encode(cmd)
	if err != nil {
		return model.RawOperation{}, fmt.Errorf("encode %s: %w", cmd.Name(), err)
	}
	return model.RawOperation{
		Type: model.CustomJSONOperation,
		CustomJSON: &model.CustomJSON{
			ID:                   CustomJSONID,
			RequiredPostingAuths: []string{sender},
			JSON:                 string(payload),
		},
	}, nil
}
