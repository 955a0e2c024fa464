package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/smartping-sync/internal/domain/team"
	"github.com/riskibarqy/smartping-sync/internal/platform/id"
	"github.com/riskibarqy/smartping-sync/internal/platform/logging"
)

type TeamSyncConfig struct {
	ClubNumber   string
	RequestDelay time.Duration
}

// TeamListing is the unified team view. Error carries the reason the live
// refresh was not used, next to the stored teams.
type TeamListing struct {
	Teams  []team.Team
	Source string
	Error  string
}

type DiscoveryResult struct {
	Discovered   []DiscoveredTeam
	UpdatedCount int
	Log          []string
	Errors       []string
}

type liveTeam struct {
	name          string
	divisionLabel string
	poolLabel     string
	phase         string
	divisionID    string
	poolID        string
	standing      *FederationStanding
}

type TeamSyncService struct {
	provider  FederationProvider
	teamRepo  team.Repository
	discovery *DiscoveryService
	matcher   *IdentityMatcher
	ids       id.Generator
	notifier  *IndexNotifier
	cfg       TeamSyncConfig
	logger    *logging.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewTeamSyncService(
	provider FederationProvider,
	teamRepo team.Repository,
	discovery *DiscoveryService,
	matcher *IdentityMatcher,
	ids id.Generator,
	notifier *IndexNotifier,
	cfg TeamSyncConfig,
	logger *logging.Logger,
) *TeamSyncService {
	if ids == nil {
		ids = id.NewRandomGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.ClubNumber) == "" {
		cfg.ClubNumber = matcher.ClubNumber()
	}
	return &TeamSyncService{
		provider:  provider,
		teamRepo:  teamRepo,
		discovery: discovery,
		matcher:   matcher,
		ids:       ids,
		notifier:  notifier,
		cfg:       cfg,
		logger:    logger.With("component", "team_sync_service"),
		sleep:     sleepContext,
	}
}

// GetTeams answers from the live federation when possible and from the store
// otherwise. A failed refresh never touches stored placement fields.
func (s *TeamSyncService) GetTeams(ctx context.Context) (TeamListing, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamSyncService.GetTeams")
	defer span.End()

	baseline, err := s.teamRepo.ListActive(ctx)
	if err != nil {
		return TeamListing{}, fmt.Errorf("list active teams: %w", err)
	}
	if s.provider == nil || !s.provider.Available() {
		return TeamListing{Teams: baseline, Source: SourceLocalStore}, nil
	}

	live, err := s.fetchLiveTeams(ctx)
	if err == nil && len(live) == 0 {
		err = fmt.Errorf("federation returned no teams for club %s", s.cfg.ClubNumber)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "live team refresh failed, serving stored teams", "error", err)
		return TeamListing{Teams: baseline, Source: SourceLocalStore, Error: err.Error()}, nil
	}

	out := make([]team.Team, 0, len(live))
	names := make([]string, 0, len(live))
	for _, item := range live {
		name := s.matcher.CanonicalTeamName(item.name)
		stored, created, err := s.teamRepo.UpsertByName(ctx, name, s.mergeLiveTeam(item))
		if err != nil {
			return TeamListing{}, fmt.Errorf("upsert team %s: %w", name, err)
		}
		if created {
			s.logger.InfoContext(ctx, "team created from federation", "team", name)
		}
		out = append(out, stored)
		names = append(names, name)
	}

	s.notifier.TeamsUpdated(ctx, names, SourceFederationLive)
	return TeamListing{Teams: out, Source: SourceFederationLive}, nil
}

func (s *TeamSyncService) fetchLiveTeams(ctx context.Context) ([]liveTeam, error) {
	clubTeams, err := s.provider.ClubTeams(ctx, s.cfg.ClubNumber)
	if err != nil {
		return nil, fmt.Errorf("club teams: %w", err)
	}

	out := make([]liveTeam, 0, len(clubTeams))
	for i, ct := range clubTeams {
		if i > 0 {
			if err := s.sleep(ctx, s.cfg.RequestDelay); err != nil {
				return nil, err
			}
		}

		item := liveTeam{
			name:          ct.Name,
			divisionLabel: strings.TrimSpace(ct.DivisionLabel),
			poolLabel:     PoolLabel(ct.DivisionLabel),
			phase:         PhaseLabel(ct.EventName + " " + ct.DivisionLabel),
		}
		divisionID, poolID, ok := ParsePoolLink(ct.DivisionLink)
		if ok {
			item.divisionID = divisionID
			item.poolID = poolID

			rows, err := s.provider.Standings(ctx, divisionID, poolID)
			if err != nil {
				return nil, fmt.Errorf("standings of %s: %w", ct.Name, err)
			}
			item.standing = s.pickStanding(ct.Name, rows)
		}
		out = append(out, item)
	}
	return out, nil
}

// pickStanding chooses the club row whose team number matches the team,
// falling back to the first club row of the pool.
func (s *TeamSyncService) pickStanding(teamName string, rows []FederationStanding) *FederationStanding {
	want := TeamNumber(teamName)
	var first *FederationStanding
	for i := range rows {
		row := &rows[i]
		if !s.matcher.MatchesClub(row.ClubNumber, row.TeamName) {
			continue
		}
		if TeamNumber(row.TeamName) == want {
			return row
		}
		if first == nil {
			first = row
		}
	}
	return first
}

func (s *TeamSyncService) mergeLiveTeam(live liveTeam) func(*team.Team) error {
	return func(t *team.Team) error {
		if t.ID == "" {
			newID, err := s.ids.NewID()
			if err != nil {
				return fmt.Errorf("generate team id: %w", err)
			}
			t.ID = newID
		}

		t.DivisionLabel = keepNonEmpty(live.divisionLabel, t.DivisionLabel)
		t.PoolLabel = keepNonEmpty(live.poolLabel, t.PoolLabel)
		t.Phase = keepNonEmpty(live.phase, t.Phase)
		t.DivisionID = keepNonEmpty(live.divisionID, t.DivisionID)
		t.PoolID = keepNonEmpty(live.poolID, t.PoolID)
		if live.divisionID != "" && live.poolID != "" {
			t.LinkToken = PoolLinkToken(live.divisionID, live.poolID)
		}

		var row FederationStanding
		if live.standing != nil {
			row = *live.standing
		}
		t.Rank = row.Rank
		t.Played = row.Played
		t.Points = row.Points
		t.Wins = row.Wins
		t.Losses = row.Losses
		t.Draws = row.Draws
		t.Active = true
		return nil
	}
}

// DiscoverTeams crawls the federation hierarchy and records where existing
// teams play. Teams unknown to the store are reported but never created.
func (s *TeamSyncService) DiscoverTeams(ctx context.Context, clubNumber string) (DiscoveryResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamSyncService.DiscoverTeams")
	defer span.End()

	clubNumber = strings.TrimSpace(clubNumber)
	if clubNumber == "" {
		clubNumber = s.cfg.ClubNumber
	}
	if clubNumber != s.cfg.ClubNumber {
		return DiscoveryResult{}, fmt.Errorf("%w: club number %q does not match configured club %q", ErrInvalidInput, clubNumber, s.cfg.ClubNumber)
	}
	if s.discovery == nil {
		return DiscoveryResult{}, fmt.Errorf("%w: discovery is not configured", ErrDependencyUnavailable)
	}

	report, crawlErr := s.discovery.Crawl(ctx, clubNumber)
	result := DiscoveryResult{
		Discovered: report.Discovered,
		Log:        report.Log,
		Errors:     report.Errors,
	}
	if crawlErr != nil && len(report.Discovered) == 0 {
		return result, crawlErr
	}

	updated := make([]string, 0, len(report.Discovered))
	seen := make(map[string]struct{}, len(report.Discovered))
	for _, found := range report.Discovered {
		name := s.matcher.CanonicalTeamName(found.Name)
		if _, ok := seen[name]; ok {
			result.Log = append(result.Log, fmt.Sprintf("%s already placed in this pass, ignored %s / %s", name, found.DivisionLabel, found.PoolLabel))
			continue
		}
		seen[name] = struct{}{}

		_, ok, err := s.teamRepo.UpdateByName(ctx, name, applyDiscoveredPlacement(found))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("update %s: %v", name, err))
			continue
		}
		if !ok {
			result.Log = append(result.Log, fmt.Sprintf("%s is not a stored team, skipped", name))
			continue
		}
		updated = append(updated, name)
	}
	result.UpdatedCount = len(updated)

	if len(updated) > 0 {
		s.notifier.TeamsUpdated(ctx, updated, SourceFederationLive)
	}
	s.logger.InfoContext(ctx, "team discovery applied",
		"club_number", clubNumber,
		"discovered", len(result.Discovered),
		"updated", result.UpdatedCount,
		"errors", len(result.Errors),
	)
	return result, crawlErr
}

func applyDiscoveredPlacement(found DiscoveredTeam) func(*team.Team) error {
	return func(t *team.Team) error {
		t.DivisionLabel = keepNonEmpty(found.DivisionLabel, t.DivisionLabel)
		t.PoolLabel = keepNonEmpty(found.PoolLabel, t.PoolLabel)
		t.DivisionID = keepNonEmpty(found.DivisionID, t.DivisionID)
		t.PoolID = keepNonEmpty(found.PoolID, t.PoolID)
		t.LinkToken = PoolLinkToken(found.DivisionID, found.PoolID)
		t.Rank = found.Rank
		t.Points = found.Points
		t.Played = found.Played
		t.Wins = found.Wins
		t.Losses = found.Losses
		t.Draws = found.Draws
		return nil
	}
}

func keepNonEmpty(next, previous string) string {
	if next = strings.TrimSpace(next); next != "" {
		return next
	}
	return previous
}
