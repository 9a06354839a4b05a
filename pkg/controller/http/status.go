package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/forkwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/forkwatch/pkg/utils/async"
	"github.com/m-mizutani/goerr/v2"
)

// StatusHandler serves scheduler status and manual poll requests.
type StatusHandler struct {
	schedulerUC interfaces.SchedulerUseCase
	updates     interfaces.UpdateRepository
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(schedulerUC interfaces.SchedulerUseCase, updates interfaces.UpdateRepository) *StatusHandler {
	return &StatusHandler{
		schedulerUC: schedulerUC,
		updates:     updates,
	}
}

// GetStatus returns the current scheduler status. Read-only, no side
// effects.
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status, err := h.schedulerUC.Status(ctx)
	if err != nil {
		ctxlog.From(ctx).Error("Failed to get scheduler status", "error", err)
		writeError(w, err, http.StatusInternalServerError)
		return
	}

	writeJSON(ctx, w, http.StatusOK, status)
}

// PollNow triggers an out-of-band poll cycle and returns immediately. The
// cycle runs in the background; its outcome shows up in /api/status.
func (h *StatusHandler) PollNow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	async.Dispatch(ctx, func(ctx context.Context) error {
		return h.schedulerUC.PollNow(ctx)
	})

	writeJSON(ctx, w, http.StatusAccepted, map[string]string{
		"status": "poll scheduled",
	})
}

// GetUpdates returns recently detected update records, newest first. The
// optional "limit" query parameter caps the result size.
func (h *StatusHandler) GetUpdates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, goerr.New("limit must be a positive integer", goerr.V("limit", raw)), http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := h.updates.RecentUpdates(ctx, limit)
	if err != nil {
		ctxlog.From(ctx).Error("Failed to read updates", "error", err)
		writeError(w, err, http.StatusInternalServerError)
		return
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{
		"updates": records,
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		ctxlog.From(ctx).Error("Failed to encode response", "error", err)
	}
}
