package transport

import (
	"context"

	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/model"
	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/service/synchronizer"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Daemon interface {
		State() synchronizer.State
		RunID() string
	}

	DecisionStore interface {
		LoadCursor(ctx context.Context, delegator string) (model.Moment, error)
		RecentDecisions(ctx context.Context, delegator string, limit int) ([]model.DecisionRecord, error)
	}
)
