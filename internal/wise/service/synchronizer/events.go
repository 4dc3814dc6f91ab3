package synchronizer

import (
	"fmt"

	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/model"
)

// EventType names a daemon event.
type EventType string

const (
	StartBlock          EventType = "start_block"
	EndBlock            EventType = "end_block"
	VoteorderPassed     EventType = "voteorder_passed"
	VoteorderRejected   EventType = "voteorder_rejected"
	OperationsPushed    EventType = "operations_pushed"
	RetryScheduled      EventType = "retry_scheduled"
	SynchronizationStop EventType = "synchronization_stop"
)

// Event describes one step of the synchronization.
type Event struct {
	Type  EventType
	Block uint64
	// Moment is the resume cursor for EndBlock and the inclusion point for
	// OperationsPushed.
	Moment model.Moment
	// Decision is set for VoteorderPassed and VoteorderRejected.
	Decision *model.Decision
	// Operations counts the submitted operations of OperationsPushed.
	Operations int
	// Operation names the failed call of RetryScheduled.
	Operation string
}

func (e Event) String() string {
	switch e.Type {
	case VoteorderPassed, VoteorderRejected:
		if e.Decision != nil {
			v := e.Decision.Voteorder
			return fmt.Sprintf("%s %s/%s by %s at %s", e.Type, v.Author, v.Permlink, v.Voter, v.Moment)
		}
	case EndBlock, OperationsPushed:
		return fmt.Sprintf("%s %d at %s", e.Type, e.Block, e.Moment)
	}
	return fmt.Sprintf("%s %d", e.Type, e.Block)
}
