package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/smartping-sync/internal/platform/logging"
	"github.com/riskibarqy/smartping-sync/internal/usecase"
)

const maxRequestBodyBytes = 1 << 20

type TeamService interface {
	GetTeams(ctx context.Context) (usecase.TeamListing, error)
	DiscoverTeams(ctx context.Context, clubNumber string) (usecase.DiscoveryResult, error)
}

type TeamResultsService interface {
	GetTeamResults(ctx context.Context, teamID string) (usecase.TeamResults, error)
}

type PlayerService interface {
	GetPlayerDetail(ctx context.Context, licence string) (usecase.PlayerDetail, error)
}

type PlayerResyncService interface {
	Resync(ctx context.Context, input usecase.PlayerResyncInput) (usecase.PlayerResyncResult, error)
}

type Handler struct {
	teamService    TeamService
	resultsService TeamResultsService
	playerService  PlayerService
	resyncService  PlayerResyncService
	logger         *logging.Logger
	validator      *validator.Validate
}

func NewHandler(
	teamService TeamService,
	resultsService TeamResultsService,
	playerService PlayerService,
	resyncService PlayerResyncService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		teamService:    teamService,
		resultsService: resultsService,
		playerService:  playerService,
		resyncService:  resyncService,
		logger:         logger.With("component", "httpapi"),
		validator:      validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeOptionalJSON accepts an empty body as the zero request.
func decodeOptionalJSON(r *http.Request, out any) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func requireService(ctx context.Context, w http.ResponseWriter, ok bool, name string) bool {
	if ok {
		return true
	}
	writeError(ctx, w, fmt.Errorf("%w: %s is not configured", usecase.ErrDependencyUnavailable, name))
	return false
}

func isClientError(err error) bool {
	return errors.Is(err, usecase.ErrInvalidInput) || errors.Is(err, usecase.ErrNotFound)
}
