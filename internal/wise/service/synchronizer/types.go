package synchronizer

import (
	"context"
	"time"

	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/model"
	"github.com/goodnatureofminers/wisedelegator-backend/pkg/pipeline"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Ledger is the read side of the chain the daemon follows.
	Ledger interface {
		HistoryPage(ctx context.Context, account string, from int64, limit int) ([]pipeline.Entry[model.RawOperation], error)
		Block(ctx context.Context, num uint64) (model.Block, error)
		HeadBlock(ctx context.Context) (uint64, error)
		Post(ctx context.Context, author, permlink string) (model.Post, error)
		Account(ctx context.Context, name string) (model.Account, error)
		CallRPC(ctx context.Context, endpoint, method string, params, result any) error
	}

	// Broadcaster submits operations as one transaction signed by the
	// delegator and reports where it was included.
	Broadcaster interface {
		Submit(ctx context.Context, ops []model.RawOperation) (model.Moment, error)
	}

	// Observer receives daemon events. err is set on failure events.
	Observer interface {
		OnEvent(err error, ev Event)
		Progress(message string, fraction float64)
	}

	Metrics interface {
		ObserveBlock(err error, started time.Time)
		ObserveDecision(accepted bool)
		ObservePush(err error, operations int)
		ObserveRetry(operation string)
		SetCursor(block uint64)
	}

	// Journal stores decisions and the resume cursor for analytics and
	// restarts. It is never consulted for decisions.
	Journal interface {
		InsertDecisions(ctx context.Context, records []model.DecisionRecord) error
		SaveCursor(ctx context.Context, delegator string, cursor model.Moment) error
	}
)
