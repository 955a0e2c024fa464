package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/smartping-sync/internal/usecase"
)

type playerResyncRequest struct {
	Licences   []string `json:"licences" validate:"omitempty,max=500,dive,required,alphanum,max=12"`
	MaxWorkers int      `json:"max_workers" validate:"gte=0,lte=16"`
}

func (h *Handler) GetPlayerDetail(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayerDetail")
	defer span.End()

	if !requireService(ctx, w, h.playerService != nil, "player service") {
		return
	}

	licence := strings.TrimSpace(r.PathValue("licence"))
	detail, err := h.playerService.GetPlayerDetail(ctx, licence)
	if err != nil {
		if isClientError(err) {
			h.logger.WarnContext(ctx, "get player detail rejected", "licence", licence, "error", err)
		} else {
			h.logger.ErrorContext(ctx, "get player detail failed", "licence", licence, "error", err)
		}
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, playerDetailToDTO(detail))
}

func (h *Handler) RunPlayerResync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunPlayerResync")
	defer span.End()

	if !requireService(ctx, w, h.resyncService != nil, "player resync service") {
		return
	}

	var req playerResyncRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.resyncService.Resync(ctx, usecase.PlayerResyncInput{
		Licences:   req.Licences,
		MaxWorkers: req.MaxWorkers,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "player resync failed", "requested", len(req.Licences), "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "player resync completed",
		"tasks", result.TaskCount,
		"success", result.SuccessCount,
		"failed", result.FailedCount,
		"skipped", result.SkippedCount,
	)
	writeSuccess(ctx, w, http.StatusOK, result)
}
