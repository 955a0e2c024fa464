package httpapi

import (
	"net/http"
	"strings"
)

type discoveryRequest struct {
	ClubNumber string `json:"club_number" validate:"omitempty,alphanum,max=12"`
}

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	if !requireService(ctx, w, h.teamService != nil, "team service") {
		return
	}

	listing, err := h.teamService.GetTeams(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list teams failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamListingToDTO(listing))
}

func (h *Handler) GetTeamResults(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamResults")
	defer span.End()

	if !requireService(ctx, w, h.resultsService != nil, "team results service") {
		return
	}

	teamID := strings.TrimSpace(r.PathValue("teamID"))
	results, err := h.resultsService.GetTeamResults(ctx, teamID)
	if err != nil {
		if isClientError(err) {
			h.logger.WarnContext(ctx, "get team results rejected", "team_id", teamID, "error", err)
		} else {
			h.logger.ErrorContext(ctx, "get team results failed", "team_id", teamID, "error", err)
		}
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamResultsToDTO(results))
}

// RunDiscovery crawls the federation hierarchy. Partial results are returned
// with the crawl error attached so the operator sees what was reached.
func (h *Handler) RunDiscovery(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunDiscovery")
	defer span.End()

	if !requireService(ctx, w, h.teamService != nil, "team service") {
		return
	}

	var req discoveryRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.teamService.DiscoverTeams(ctx, strings.TrimSpace(req.ClubNumber))
	if err != nil && len(result.Discovered) == 0 && len(result.Log) == 0 {
		h.logger.WarnContext(ctx, "discovery failed", "club_number", req.ClubNumber, "error", err)
		writeError(ctx, w, err)
		return
	}

	payload := discoveryResultToDTO(result)
	if err != nil {
		h.logger.WarnContext(ctx, "discovery interrupted", "club_number", req.ClubNumber, "updated", result.UpdatedCount, "error", err)
		payload.Interrupted = err.Error()
	}
	writeSuccess(ctx, w, http.StatusOK, payload)
}
