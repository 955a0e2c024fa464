package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/smartping-sync/internal/domain/team"
	"github.com/riskibarqy/smartping-sync/internal/platform/cache"
	"github.com/riskibarqy/smartping-sync/internal/platform/logging"
	"github.com/riskibarqy/smartping-sync/internal/platform/resilience"
	"github.com/sourcegraph/conc/pool"
)

const (
	teamResultsKeyPrefix = "team_results:"
	poolFetchTimeout     = 30 * time.Second
)

// TeamResults is the pool view of one stored team: standings and fixtures.
type TeamResults struct {
	Team      team.Team
	Standings []FederationStanding
	Fixtures  []FederationFixture
	FetchedAt time.Time
	Source    string
	Error     string
}

type TeamResultsService struct {
	provider  FederationProvider
	teamRepo  team.Repository
	snapshots *cache.Store
	flights   resilience.SingleFlight[poolResults]
	logger    *logging.Logger
	now       func() time.Time
}

// NewTeamResultsService keeps the last good snapshot per team in snapshots;
// a nil store keeps them until the process exits.
func NewTeamResultsService(provider FederationProvider, teamRepo team.Repository, snapshots *cache.Store, logger *logging.Logger) *TeamResultsService {
	if snapshots == nil {
		snapshots = cache.NewStore(0)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &TeamResultsService{
		provider:  provider,
		teamRepo:  teamRepo,
		snapshots: snapshots,
		logger:    logger.With("component", "team_results_service"),
		now:       time.Now,
	}
}

func (s *TeamResultsService) GetTeamResults(ctx context.Context, teamID string) (TeamResults, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamResultsService.GetTeamResults")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return TeamResults{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}
	item, found, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return TeamResults{}, fmt.Errorf("get team %s: %w", teamID, err)
	}
	if !found {
		return TeamResults{}, fmt.Errorf("%w: team %s", ErrNotFound, teamID)
	}

	if item.DivisionID == "" || item.PoolID == "" {
		return s.fallback(ctx, item, "team has no known division and pool"), nil
	}
	if s.provider == nil || !s.provider.Available() {
		return s.fallback(ctx, item, ""), nil
	}

	standings, fixtures, err := s.fetchPool(ctx, item.DivisionID, item.PoolID)
	if err != nil {
		s.logger.WarnContext(ctx, "live team results failed", "team_id", teamID, "error", err)
		return s.fallback(ctx, item, err.Error()), nil
	}

	out := TeamResults{
		Team:      item,
		Standings: standings,
		Fixtures:  fixtures,
		FetchedAt: s.now().UTC(),
		Source:    SourceFederationLive,
	}
	s.snapshots.Set(ctx, teamResultsKeyPrefix+teamID, out)
	return out, nil
}

type poolResults struct {
	standings []FederationStanding
	fixtures  []FederationFixture
}

// fetchPool loads standings and fixtures of one pool. Concurrent requests for
// the same pool share a single pair of federation calls.
func (s *TeamResultsService) fetchPool(ctx context.Context, divisionID, poolID string) ([]FederationStanding, []FederationFixture, error) {
	res, shared, err := s.flights.Do(divisionID+"/"+poolID, func() (poolResults, error) {
		// Joined callers wait on this load, so it must not die with the
		// caller that happened to start it.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), poolFetchTimeout)
		defer cancel()
		standings, fixtures, err := s.loadPool(loadCtx, divisionID, poolID)
		return poolResults{standings: standings, fixtures: fixtures}, err
	})
	if shared {
		s.logger.DebugContext(ctx, "pool results shared with in-flight request", "division_id", divisionID, "pool_id", poolID)
	}
	if err != nil {
		return nil, nil, err
	}
	return res.standings, res.fixtures, nil
}

func (s *TeamResultsService) loadPool(ctx context.Context, divisionID, poolID string) ([]FederationStanding, []FederationFixture, error) {
	var standings []FederationStanding
	var fixtures []FederationFixture

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		rows, err := s.provider.Standings(ctx, divisionID, poolID)
		if err != nil {
			return fmt.Errorf("standings: %w", err)
		}
		standings = rows
		return nil
	})
	p.Go(func(ctx context.Context) error {
		rows, err := s.provider.Fixtures(ctx, divisionID, poolID)
		if err != nil {
			return fmt.Errorf("fixtures: %w", err)
		}
		fixtures = rows
		return nil
	})
	if err := p.Wait(); err != nil {
		return nil, nil, err
	}
	return standings, fixtures, nil
}

func (s *TeamResultsService) fallback(ctx context.Context, item team.Team, errMsg string) TeamResults {
	if snapshot, ok := cache.GetAs[TeamResults](ctx, s.snapshots, teamResultsKeyPrefix+item.ID); ok {
		snapshot.Team = item
		snapshot.Source = SourceCache
		snapshot.Error = errMsg
		return snapshot
	}
	return TeamResults{
		Team:      item,
		Standings: []FederationStanding{},
		Fixtures:  []FederationFixture{},
		Source:    SourceLocalStore,
		Error:     errMsg,
	}
}
