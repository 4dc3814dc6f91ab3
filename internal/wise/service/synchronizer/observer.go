package synchronizer

import (
	"go.uber.org/zap"
)

// LogObserver writes daemon events as structured log lines.
type LogObserver struct {
	logger *zap.Logger
}

// NewLogObserver creates a LogObserver.
func NewLogObserver(logger *zap.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

// OnEvent logs ev together with err, if any.
func (o *LogObserver) OnEvent(err error, ev Event) {
	fields := []zap.Field{zap.String("event", string(ev.Type)), zap.Uint64("block", ev.Block)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}

	switch ev.Type {
	case StartBlock:
		o.logger.Debug("block started", fields...)
	case EndBlock:
		o.logger.Debug("block finished", append(fields, zap.Stringer("cursor", ev.Moment))...)
	case VoteorderPassed, VoteorderRejected:
		if d := ev.Decision; d != nil {
			fields = append(fields,
				zap.String("voter", d.Voteorder.Voter),
				zap.String("ruleset", d.Voteorder.Ruleset),
				zap.String("author", d.Voteorder.Author),
				zap.String("permlink", d.Voteorder.Permlink),
				zap.Float64("weight", d.Voteorder.Weight),
				zap.String("tx_id", d.Voteorder.TxID),
			)
			if !d.Accepted {
				fields = append(fields, zap.String("reason", d.Reason))
			}
		}
		o.logger.Info("voteorder decided", fields...)
	case OperationsPushed:
		o.logger.Info("operations pushed", append(fields, zap.Int("operations", ev.Operations), zap.Stringer("moment", ev.Moment))...)
	case RetryScheduled:
		o.logger.Warn("ledger call failed, retrying", append(fields, zap.String("operation", ev.Operation))...)
	case SynchronizationStop:
		if err != nil {
			o.logger.Error("synchronization stopped", fields...)
			return
		}
		o.logger.Info("synchronization stopped", fields...)
	default:
		o.logger.Info("event", fields...)
	}
}

// Progress logs a progress step.
func (o *LogObserver) Progress(message string, fraction float64) {
	o.logger.Debug(message, zap.Float64("progress", fraction))
}

// MultiObserver forwards every event to each observer in order.
type MultiObserver []Observer

// OnEvent forwards ev to every observer in order.
func (m MultiObserver) OnEvent(err error, ev Event) {
	for _, o := range m {
		o.OnEvent(err, ev)
	}
}

// Progress forwards the step to every observer in order.
func (m MultiObserver) Progress(message string, fraction float64) {
	for _, o := range m {
		o.Progress(message, fraction)
	}
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) OnEvent(error, Event)     {}
func (NopObserver) Progress(string, float64) {}
