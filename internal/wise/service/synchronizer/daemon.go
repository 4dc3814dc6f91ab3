// Package synchronizer follows the ledger block by block on behalf of one
// delegator, decides every voteorder addressed to it and publishes the
// resulting votes and confirmations.
package synchronizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/wisedelegator-backend/internal/clock"
	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/model"
	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/protocol"
	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/rules"
	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/validity"
)

// ErrAlreadyStarted is returned by Start on a daemon that is not idle.
var ErrAlreadyStarted = errors.New("synchronizer already started")

// State is the lifecycle state of a Daemon.
type State int

const (
	Idle State = iota
	Running
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options tunes a Daemon. Zero values take defaults.
type Options struct {
	Delegator string
	// Concurrency bounds parallel voteorder validation inside a block.
	Concurrency     int
	HistoryPageSize int
	// HistoryDepth caps how many of the newest history operations are
	// preloaded. Zero loads the whole history.
	HistoryDepth int
	PollInterval time.Duration
	// RetryTimeout is how long a failing ledger call is retried before the
	// daemon stops with an error.
	RetryTimeout time.Duration
	// UntilBlock stops the daemon after this block. Zero follows the head.
	UntilBlock uint64
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = defaultConcurrency
	}
	if o.HistoryPageSize <= 0 {
		o.HistoryPageSize = defaultHistoryPageSize
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.RetryTimeout <= 0 {
		o.RetryTimeout = defaultRetryTimeout
	}
	return o
}

// Daemon synchronizes one delegator.
type Daemon struct {
	opts        Options
	runID       string
	logger      *zap.Logger
	ledger      Ledger
	broadcaster Broadcaster
	observer    Observer
	metrics     Metrics
	journal     Journal
	writer      *journalWriter
	clock       clock.Clock

	codec         *protocol.Codec
	engine        *rules.Engine
	index         *validity.Index
	confirmations *confirmations
	rules         *ruleContext
	head          uint64

	mu     deadlock.Mutex
	state  State
	cancel context.CancelFunc
	// halt ends waiting for the next block; the block in flight keeps running.
	halt context.CancelFunc
	done chan struct{}
	err  error
}

// NewDaemon builds a Daemon. observer and journal are optional.
func NewDaemon(
	opts Options,
	ledger Ledger,
	broadcaster Broadcaster,
	observer Observer,
	metrics Metrics,
	journal Journal,
	logger *zap.Logger,
) (*Daemon, error) {
	if opts.Delegator == "" {
		return nil, errors.New("delegator is required")
	}
	if ledger == nil {
		return nil, errors.New("ledger is required")
	}
	if broadcaster == nil {
		return nil, errors.New("broadcaster is required")
	}
	if metrics == nil {
		return nil, errors.New("synchronizer metrics is required")
	}
	if observer == nil {
		observer = NopObserver{}
	}

	runID := uuid.NewString()
	logger = logger.With(
		zap.String("delegator", opts.Delegator),
		zap.String("run_id", runID),
	)
	conf := newConfirmations(opts.Delegator)

	d := &Daemon{
		opts:          opts.withDefaults(),
		runID:         runID,
		logger:        logger,
		ledger:        ledger,
		broadcaster:   broadcaster,
		observer:      observer,
		metrics:       metrics,
		journal:       journal,
		clock:         clock.Real{},
		codec:         protocol.NewCodec(),
		engine:        rules.NewEngine(),
		index:         validity.NewIndex(opts.Delegator),
		confirmations: conf,
		rules:         &ruleContext{ledger: ledger, delegator: opts.Delegator, confirmations: conf},
		done:          make(chan struct{}),
	}
	if journal != nil {
		d.writer = newJournalWriter(journal, logger.Named("journalWriter"))
	}
	return d, nil
}

// RunID identifies this daemon in logs and the decision journal.
func (d *Daemon) RunID() string { return d.runID }

// State returns the current lifecycle state.
func (d *Daemon) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Start begins synchronization in the background from resumeFrom.
// Operations before resumeFrom are only used to rebuild state.
func (d *Daemon) Start(ctx context.Context, resumeFrom model.Moment) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != Idle {
		return ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	haltCtx, halt := context.WithCancel(runCtx)
	d.cancel = cancel
	d.halt = halt
	d.state = Running

	go func() {
		err := d.run(runCtx, haltCtx, resumeFrom)
		if haltCtx.Err() != nil && errors.Is(err, context.Canceled) {
			err = nil
		}
		d.finish(err)
	}()
	return nil
}

// Stop asks the daemon to halt before the next block. The block in flight is
// finished. It does not wait.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case Running:
		d.state = Stopping
		d.halt()
	case Idle:
		d.state = Stopped
		close(d.done)
	}
}

// Wait blocks until the daemon stopped and returns the fatal error, if any.
func (d *Daemon) Wait() error {
	<-d.done
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Run starts the daemon and waits for it to stop. Cancelling ctx stops it,
// interrupting the block in flight.
func (d *Daemon) Run(ctx context.Context, resumeFrom model.Moment) error {
	if err := d.Start(ctx, resumeFrom); err != nil {
		return err
	}
	return d.Wait()
}

func (d *Daemon) finish(err error) {
	d.mu.Lock()
	d.halt()
	d.cancel()
	d.state = Stopped
	d.err = err
	d.mu.Unlock()

	d.observer.OnEvent(err, Event{Type: SynchronizationStop})
	close(d.done)
}

// run synchronizes until haltCtx ends. Blocks are processed on ctx so a halt
// never cuts one short.
func (d *Daemon) run(ctx, haltCtx context.Context, resumeFrom model.Moment) error {
	if d.writer != nil {
		d.writer.Start(ctx)
		defer d.writer.Stop()
	}

	d.observer.Progress("loading delegator history", 0)
	if err := d.preload(ctx); err != nil {
		return fmt.Errorf("preload history: %w", err)
	}
	d.observer.Progress("delegator history loaded", 1)

	from, err := d.resolveResume(ctx, resumeFrom)
	if err != nil {
		return err
	}
	d.logger.Info("synchronization started", zap.Stringer("from", from), zap.Uint64("until_block", d.opts.UntilBlock))

	for n := from.Block; d.opts.UntilBlock == 0 || n <= d.opts.UntilBlock; n++ {
		if err := haltCtx.Err(); err != nil {
			return err
		}
		if err := d.waitForBlock(haltCtx, n); err != nil {
			return err
		}
		if err := d.processBlock(ctx, n, from); err != nil {
			return err
		}
		d.reportProgress(from.Block, n)
	}
	return nil
}

// resolveResume turns resumeFrom into a concrete moment.
func (d *Daemon) resolveResume(ctx context.Context, resumeFrom model.Moment) (model.Moment, error) {
	switch {
	case resumeFrom.IsConcrete():
		return resumeFrom, nil
	case resumeFrom.IsNever():
		return model.BlockStart(1), nil
	case resumeFrom.IsNow():
		if err := d.refreshHead(ctx); err != nil {
			return model.Moment{}, err
		}
		return model.BlockStart(d.head), nil
	default:
		return model.Moment{}, fmt.Errorf("cannot resume from %s", resumeFrom)
	}
}

func (d *Daemon) refreshHead(ctx context.Context) error {
	return d.retry(ctx, "get_head_block", d.head, func(ctx context.Context) error {
		head, err := d.ledger.HeadBlock(ctx)
		if err != nil {
			return err
		}
		d.head = head
		return nil
	})
}

// waitForBlock returns once block n exists.
func (d *Daemon) waitForBlock(ctx context.Context, n uint64) error {
	for n > d.head {
		if err := d.refreshHead(ctx); err != nil {
			return err
		}
		if n <= d.head {
			return nil
		}
		if err := d.clock.Sleep(ctx, d.opts.PollInterval); err != nil {
			return err
		}
	}
	return nil
}

func (d *Daemon) reportProgress(first, n uint64) {
	last := d.opts.UntilBlock
	if last == 0 {
		last = d.head
	}
	if last <= first {
		d.observer.Progress("synchronizing blocks", 1)
		return
	}
	fraction := float64(n-first+1) / float64(last-first+1)
	d.observer.Progress("synchronizing blocks", min(fraction, 1))
}
