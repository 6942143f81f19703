package http

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/cupnotifier/pkg/domain/interfaces"
	"github.com/m-mizutani/cupnotifier/pkg/utils/async"
	"github.com/m-mizutani/goerr/v2"
)

// TriggerHandler starts a run outside of the schedule
type TriggerHandler struct {
	token string
	job   func(ctx context.Context) error
}

// NewTriggerHandler creates a new TriggerHandler
func NewTriggerHandler(token string, job func(ctx context.Context) error) *TriggerHandler {
	return &TriggerHandler{
		token: token,
		job:   job,
	}
}

// Handle dispatches the job and returns 202 without waiting for it
func (h *TriggerHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ctxlog.From(ctx)

	if !h.verifyToken(r.Header.Get("Authorization")) {
		logger.Warn("Invalid trigger token")
		writeError(ctx, w, goerr.New("invalid token"), http.StatusUnauthorized)
		return
	}

	logger.Info("Manual run requested")
	async.Dispatch(ctx, h.job)

	writeJSON(ctx, w, http.StatusAccepted, map[string]string{
		"status": "accepted",
	})
}

func (h *TriggerHandler) verifyToken(header string) bool {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.token)) == 1
}

// StatusHandler reports the dedup cache size and the last run
type StatusHandler struct {
	notifyUC interfaces.NotifyUseCase
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(notifyUC interfaces.NotifyUseCase) *StatusHandler {
	return &StatusHandler{notifyUC: notifyUC}
}

func (h *StatusHandler) Handle(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, h.notifyUC.Status(r.Context()))
}
