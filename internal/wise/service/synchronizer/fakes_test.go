package synchronizer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/wisedelegator-backend/internal/clock"
	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/model"
	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/protocol"
	"github.com/goodnatureofminers/wisedelegator-backend/pkg/pipeline"
)

const delegator = "steemprojects1"

var genesis = time.Date(2018, 6, 1, 0, 0, 0, 0, time.UTC)

func blockTime(n uint64) time.Time {
	return genesis.Add(time.Duration(n) * 3 * time.Second)
}

func wiseOp(t *testing.T, sender string, cmd protocol.Command, m model.Moment, txID string) model.RawOperation {
	t.Helper()
	raw, err := protocol.NewCodec().Encode(sender, cmd)
	require.NoError(t, err)
	raw.Moment = m
	raw.TxID = txID
	raw.Timestamp = blockTime(m.Block)
	return raw
}

var errNodeDown = errors.New("node down")

// fakeLedger is an in-memory chain. The delegator's history holds every
// custom_json it authorized.
type fakeLedger struct {
	mu           sync.Mutex
	head         uint64
	blocks       map[uint64][]model.RawOperation
	history      []model.RawOperation
	posts        map[string]model.Post
	historyCalls int
	blockCalls   int
	// failBlocks makes the next failBlocks Block calls fail; -1 fails forever.
	failBlocks int
	postErr    error
	// postGate, when set, holds every Post call until it is closed.
	postGate    chan struct{}
	postEntered chan struct{}
	enterOnce   sync.Once
}

func newFakeLedger(head uint64) *fakeLedger {
	return &fakeLedger{
		head:   head,
		blocks: make(map[uint64][]model.RawOperation),
		posts:  make(map[string]model.Post),
	}
}

func (l *fakeLedger) put(ops ...model.RawOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, op := range ops {
		n := op.Moment.Block
		l.blocks[n] = append(l.blocks[n], op)
		slices.SortFunc(l.blocks[n], func(a, b model.RawOperation) int { return model.Compare(a.Moment, b.Moment) })
		if op.CustomJSON != nil && op.CustomJSON.Sender() == delegator {
			l.history = append(l.history, op)
			slices.SortFunc(l.history, func(a, b model.RawOperation) int { return model.Compare(a.Moment, b.Moment) })
		}
	}
}

func (l *fakeLedger) addPost(author, permlink string, tags ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.posts[author+"/"+permlink] = model.Post{Author: author, Permlink: permlink, Tags: tags, Created: genesis}
}

func (l *fakeLedger) HistoryPage(_ context.Context, account string, from int64, limit int) ([]pipeline.Entry[model.RawOperation], error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.historyCalls++

	if account != delegator {
		return nil, fmt.Errorf("unexpected account %s", account)
	}
	n := int64(len(l.history))
	if n == 0 {
		return nil, nil
	}
	if from < 0 || from >= n {
		from = n - 1
	}
	start := max(0, from-int64(limit)+1)
	page := make([]pipeline.Entry[model.RawOperation], 0, from-start+1)
	for i := start; i <= from; i++ {
		page = append(page, pipeline.Entry[model.RawOperation]{Index: i, Value: l.history[i]})
	}
	return page, nil
}

func (l *fakeLedger) Block(_ context.Context, num uint64) (model.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.blockCalls++

	if l.failBlocks != 0 {
		if l.failBlocks > 0 {
			l.failBlocks--
		}
		return model.Block{}, errNodeDown
	}
	if num > l.head {
		return model.Block{}, fmt.Errorf("block %d not produced", num)
	}
	return model.Block{Number: num, Timestamp: blockTime(num), Operations: slices.Clone(l.blocks[num])}, nil
}

func (l *fakeLedger) HeadBlock(context.Context) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.head, nil
}

func (l *fakeLedger) Post(ctx context.Context, author, permlink string) (model.Post, error) {
	if l.postGate != nil {
		l.enterOnce.Do(func() { close(l.postEntered) })
		select {
		case <-l.postGate:
		case <-ctx.Done():
			return model.Post{}, ctx.Err()
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.postErr != nil {
		return model.Post{}, l.postErr
	}
	post, ok := l.posts[author+"/"+permlink]
	if !ok {
		return model.Post{}, model.ErrPostNotFound
	}
	return post, nil
}

func (l *fakeLedger) Account(_ context.Context, name string) (model.Account, error) {
	return model.Account{Name: name, VotingPower: 10000}, nil
}

func (l *fakeLedger) CallRPC(context.Context, string, string, any, any) error {
	return errors.New("rpc not supported")
}

// landingBroadcaster records transactions and includes them in the next
// block of ledger.
type landingBroadcaster struct {
	ledger *fakeLedger

	mu  sync.Mutex
	txs [][]model.RawOperation
}

func (b *landingBroadcaster) Submit(ctx context.Context, ops []model.RawOperation) (model.Moment, error) {
	if err := ctx.Err(); err != nil {
		return model.Moment{}, err
	}
	b.mu.Lock()
	b.txs = append(b.txs, ops)
	txID := fmt.Sprintf("push-%d", len(b.txs))
	b.mu.Unlock()

	b.ledger.mu.Lock()
	b.ledger.head++
	n := b.ledger.head
	b.ledger.mu.Unlock()

	landed := make([]model.RawOperation, 0, len(ops))
	for i, op := range ops {
		op.Moment = model.NewMoment(n, 0, uint32(i))
		op.TxID = txID
		op.Timestamp = blockTime(n)
		landed = append(landed, op)
	}
	b.ledger.put(landed...)
	return model.NewMoment(n, 0, 0), nil
}

func (b *landingBroadcaster) submitted() [][]model.RawOperation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.txs)
}

type recordingObserver struct {
	mu     sync.Mutex
	events []Event
	errs   []error
}

func (o *recordingObserver) OnEvent(err error, ev Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, ev)
	o.errs = append(o.errs, err)
}

func (o *recordingObserver) Progress(string, float64) {}

func (o *recordingObserver) types() []EventType {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]EventType, 0, len(o.events))
	for _, ev := range o.events {
		out = append(out, ev.Type)
	}
	return out
}

func (o *recordingObserver) decisions() []model.Decision {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []model.Decision
	for _, ev := range o.events {
		if ev.Decision != nil {
			out = append(out, *ev.Decision)
		}
	}
	return out
}

type nopMetrics struct{}

func (nopMetrics) ObserveBlock(error, time.Time) {}
func (nopMetrics) ObserveDecision(bool)          {}
func (nopMetrics) ObservePush(error, int)        {}
func (nopMetrics) ObserveRetry(string)           {}
func (nopMetrics) SetCursor(uint64)              {}

func newTestDaemon(t *testing.T, ledger Ledger, broadcaster Broadcaster, observer Observer, opts Options) *Daemon {
	t.Helper()
	opts.Delegator = delegator
	d, err := NewDaemon(opts, ledger, broadcaster, observer, nopMetrics{}, nil, zap.NewNop())
	require.NoError(t, err)
	d.clock = clock.NewManual(genesis)
	return d
}

// confirmEntries decodes the confirm_votes operation of a pushed transaction.
func confirmEntries(t *testing.T, tx []model.RawOperation) []protocol.Confirmation {
	t.Helper()
	require.NotEmpty(t, tx)
	last := tx[len(tx)-1]
	last.Moment = model.NewMoment(1, 0, 0)
	op, err := protocol.NewCodec().Decode(last)
	require.NoError(t, err)
	cmd, ok := op.Command.(protocol.ConfirmVotes)
	require.True(t, ok, "last operation must be confirm_votes, got %T", op.Command)
	return cmd.Entries
}
