// Package transport exposes the synchronizer status over HTTP.
package transport

import (
	"errors"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/model"
	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/repository/clickhouse"
	"github.com/goodnatureofminers/wisedelegator-backend/internal/wise/service/synchronizer"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultDecisionsLimit = 50
	maxDecisionsLimit     = 1000
)

// StatusHandler serves /health, /status and /decisions.
type StatusHandler struct {
	delegator string
	daemon    Daemon
	store     DecisionStore
	logger    *zap.Logger
	mux       *http.ServeMux
}

// NewStatusHandler creates a StatusHandler. store may be nil when nothing is
// journaled.
func NewStatusHandler(delegator string, daemon Daemon, store DecisionStore, logger *zap.Logger) *StatusHandler {
	h := &StatusHandler{delegator: delegator, daemon: daemon, store: store, logger: logger, mux: http.NewServeMux()}
	h.mux.HandleFunc("GET /health", h.health)
	h.mux.HandleFunc("GET /status", h.status)
	h.mux.HandleFunc("GET /decisions", h.decisions)
	return h
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type healthResponse struct {
	Status string `json:"status"`
}

type statusResponse struct {
	Delegator string `json:"delegator"`
	RunID     string `json:"run_id"`
	State     string `json:"state"`
	Cursor    string `json:"cursor,omitempty"`
}

type decisionResponse struct {
	RunID     string    `json:"run_id"`
	Voter     string    `json:"voter"`
	Ruleset   string    `json:"ruleset"`
	Author    string    `json:"author"`
	Permlink  string    `json:"permlink"`
	Weight    float64   `json:"weight"`
	Moment    string    `json:"moment"`
	TxID      string    `json:"tx_id"`
	Accepted  bool      `json:"accepted"`
	Reason    string    `json:"reason,omitempty"`
	DecidedAt time.Time `json:"decided_at"`
}

// health reports unhealthy once the daemon stopped.
func (h *StatusHandler) health(w http.ResponseWriter, _ *http.Request) {
	if h.daemon.State() == synchronizer.Stopped {
		h.write(w, http.StatusServiceUnavailable, healthResponse{Status: "stopped"})
		return
	}
	h.write(w, http.StatusOK, healthResponse{Status: "healthy"})
}

func (h *StatusHandler) status(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Delegator: h.delegator,
		RunID:     h.daemon.RunID(),
		State:     h.daemon.State().String(),
	}
	if h.store != nil {
		cursor, err := h.store.LoadCursor(r.Context(), h.delegator)
		switch {
		case err == nil:
			resp.Cursor = cursor.String()
		case !errors.Is(err, clickhouse.ErrCursorNotFound):
			h.fail(w, err)
			return
		}
	}
	h.write(w, http.StatusOK, resp)
}

func (h *StatusHandler) decisions(w http.ResponseWriter, r *http.Request) {
	limit := defaultDecisionsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := cast.ToIntE(raw)
		if err != nil || parsed <= 0 {
			h.write(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = min(parsed, maxDecisionsLimit)
	}

	resp := make([]decisionResponse, 0)
	if h.store != nil {
		records, err := h.store.RecentDecisions(r.Context(), h.delegator, limit)
		if err != nil {
			h.fail(w, err)
			return
		}
		for _, rec := range records {
			resp = append(resp, toDecisionResponse(rec))
		}
	}
	h.write(w, http.StatusOK, resp)
}

func toDecisionResponse(rec model.DecisionRecord) decisionResponse {
	order := rec.Decision.Voteorder
	return decisionResponse{
		RunID:     rec.RunID,
		Voter:     order.Voter,
		Ruleset:   order.Ruleset,
		Author:    order.Author,
		Permlink:  order.Permlink,
		Weight:    order.Weight,
		Moment:    order.Moment.String(),
		TxID:      order.TxID,
		Accepted:  rec.Decision.Accepted,
		Reason:    rec.Decision.Reason,
		DecidedAt: rec.DecidedAt,
	}
}

func (h *StatusHandler) fail(w http.ResponseWriter, err error) {
	h.logger.Error("status request failed", zap.Error(err))
	h.write(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func (h *StatusHandler) write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("write response", zap.Error(err))
	}
}
