package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/smartping-sync/internal/domain/team"
	"github.com/riskibarqy/smartping-sync/internal/infrastructure/repository/memory"
	teammock "github.com/riskibarqy/smartping-sync/internal/mocks/domain/team"
	"github.com/riskibarqy/smartping-sync/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

type sequenceIDs struct{ n int }

func (g *sequenceIDs) NewID() (string, error) {
	g.n++
	return "team-" + string(rune('a'+g.n-1)), nil
}

func storedTeams() []team.Team {
	return []team.Team{
		{ID: "t-2", Name: "CX 2", DivisionLabel: "D1", PoolLabel: "A", DivisionID: "DIV1", PoolID: "1", Rank: 5, Points: 6, Active: true},
		{ID: "t-5", Name: "CX 5", DivisionLabel: "D3", PoolLabel: "C", Active: true},
	}
}

func newTeamSyncService(provider FederationProvider, repo team.Repository) *TeamSyncService {
	matcher := NewIdentityMatcher(IdentityConfig{ClubNumber: "222", Abbreviation: "CX", NameVariants: []string{"CLUB X"}})
	discovery := NewDiscoveryService(provider, matcher, DiscoveryConfig{
		LeaguePatterns:  []string{"grand est"},
		DepartmentCodes: []string{"67"},
	}, logging.NewNop())
	discovery.sleep = noSleep

	svc := NewTeamSyncService(provider, repo, discovery, matcher, &sequenceIDs{}, nil, TeamSyncConfig{}, logging.NewNop())
	svc.sleep = noSleep
	return svc
}

func liveTeamsFixture() *stubFederation {
	return &stubFederation{
		clubTeams: map[string][]FederationClubTeam{
			"222": {
				{ID: "E2", Name: "CLUB X 2", DivisionLabel: "D1 Poule B", DivisionLink: "cx_poule=7&D1=DIV1", EventName: "Championnat Phase 2"},
				{ID: "E3", Name: "CLUB X 3", DivisionLabel: "D2 Poule 4", DivisionLink: "cx_poule=9&D1=DIV2", EventName: "Championnat Phase 2"},
			},
		},
		standings: map[string][]FederationStanding{
			"DIV1:7": {
				{Rank: 1, TeamName: "CLUB X 1", ClubNumber: "222", Points: 20},
				{Rank: 2, TeamName: "CLUB X 2", ClubNumber: "222", Points: 18, Played: 7, Wins: 5, Losses: 1, Draws: 1},
			},
			"DIV2:9": {
				{Rank: 6, TeamName: "CLUB X 3", ClubNumber: "222", Points: 9, Played: 7},
			},
		},
	}
}

func TestTeamSyncService_GetTeams_NoCredentialsServesStore(t *testing.T) {
	t.Parallel()

	provider := &stubFederation{unavailable: true}
	svc := newTeamSyncService(provider, memory.NewTeamRepository(storedTeams()))

	got, err := svc.GetTeams(context.Background())
	if err != nil {
		t.Fatalf("get teams: %v", err)
	}
	if got.Source != SourceLocalStore || got.Error != "" {
		t.Fatalf("unexpected listing: source=%s error=%q", got.Source, got.Error)
	}
	if len(got.Teams) != 2 {
		t.Fatalf("unexpected team count: got=%d want=2", len(got.Teams))
	}
	if provider.callCount("club_teams:222") != 0 {
		t.Fatalf("no federation call expected without credentials")
	}
}

func TestTeamSyncService_GetTeams_LiveRefreshUpsertsTeams(t *testing.T) {
	t.Parallel()

	repo := memory.NewTeamRepository(storedTeams())
	svc := newTeamSyncService(liveTeamsFixture(), repo)

	got, err := svc.GetTeams(context.Background())
	if err != nil {
		t.Fatalf("get teams: %v", err)
	}
	if got.Source != SourceFederationLive || got.Error != "" {
		t.Fatalf("unexpected listing: source=%s error=%q", got.Source, got.Error)
	}
	if len(got.Teams) != 2 {
		t.Fatalf("response must be the live teams: got=%d", len(got.Teams))
	}

	second, ok, err := repo.GetByName(context.Background(), "CX 2")
	if err != nil || !ok {
		t.Fatalf("get CX 2: ok=%v err=%v", ok, err)
	}
	if second.ID != "t-2" {
		t.Fatalf("existing id must be kept: %s", second.ID)
	}
	if second.Rank != 2 || second.Points != 18 || second.Wins != 5 {
		t.Fatalf("standing must come from the row with the same team number: %+v", second)
	}
	if second.PoolLabel != "B" || second.PoolID != "7" || second.LinkToken != "cx_poule=7&D1=DIV1" || second.Phase != "2" {
		t.Fatalf("unexpected placement: %+v", second)
	}

	third, ok, err := repo.GetByName(context.Background(), "CX 3")
	if err != nil || !ok {
		t.Fatalf("CX 3 must be created: ok=%v err=%v", ok, err)
	}
	if third.ID == "" || !third.Active || third.Points != 9 {
		t.Fatalf("unexpected created team: %+v", third)
	}
}

func TestTeamSyncService_GetTeams_FailedRefreshKeepsStoredPlacement(t *testing.T) {
	t.Parallel()

	provider := liveTeamsFixture()
	provider.fail = map[string]bool{"standings:DIV2:9": true}
	repo := memory.NewTeamRepository(storedTeams())
	svc := newTeamSyncService(provider, repo)

	for i := 0; i < 2; i++ {
		got, err := svc.GetTeams(context.Background())
		if err != nil {
			t.Fatalf("get teams: %v", err)
		}
		if got.Source != SourceLocalStore || got.Error == "" {
			t.Fatalf("attempt %d: expected stored fallback with error, got source=%s error=%q", i, got.Source, got.Error)
		}
		if len(got.Teams) != 2 || got.Teams[0].PoolLabel != "A" || got.Teams[0].DivisionLabel != "D1" {
			t.Fatalf("attempt %d: fallback must return the stored teams unchanged: %+v", i, got.Teams)
		}
	}

	stored, _, _ := repo.GetByName(context.Background(), "CX 2")
	if stored.PoolLabel != "A" || stored.DivisionLabel != "D1" || stored.Points != 6 {
		t.Fatalf("failed refresh must not touch the store: %+v", stored)
	}
}

func TestTeamSyncService_GetTeams_EmptyLiveResultIsFailure(t *testing.T) {
	t.Parallel()

	svc := newTeamSyncService(&stubFederation{}, memory.NewTeamRepository(storedTeams()))

	got, err := svc.GetTeams(context.Background())
	if err != nil {
		t.Fatalf("get teams: %v", err)
	}
	if got.Source != SourceLocalStore || got.Error == "" {
		t.Fatalf("empty live result must fall back: source=%s error=%q", got.Source, got.Error)
	}
}

func TestTeamSyncService_GetTeams_KeepsPoolWhenLiveHasNone(t *testing.T) {
	t.Parallel()

	provider := &stubFederation{
		clubTeams: map[string][]FederationClubTeam{
			"222": {{ID: "E2", Name: "CLUB X 2", DivisionLabel: "", DivisionLink: ""}},
		},
	}
	repo := memory.NewTeamRepository(storedTeams())
	svc := newTeamSyncService(provider, repo)

	if _, err := svc.GetTeams(context.Background()); err != nil {
		t.Fatalf("get teams: %v", err)
	}
	stored, _, _ := repo.GetByName(context.Background(), "CX 2")
	if stored.PoolLabel != "A" || stored.DivisionLabel != "D1" || stored.PoolID != "1" {
		t.Fatalf("empty live values must not overwrite stored placement: %+v", stored)
	}
	if stored.Points != 0 || stored.Rank != 0 {
		t.Fatalf("absent standing must reset numeric fields: %+v", stored)
	}
}

func TestTeamSyncService_GetTeams_RepositoryErrorUsingMockery(t *testing.T) {
	t.Parallel()

	repo := teammock.NewRepository(t)
	repo.On("ListActive", mock.Anything).Return([]team.Team{}, nil).Once()
	repo.On("UpsertByName", mock.Anything, "CX 2", mock.Anything).Return(team.Team{}, false, errors.New("db down")).Once()

	svc := newTeamSyncService(liveTeamsFixture(), repo)
	if _, err := svc.GetTeams(context.Background()); err == nil {
		t.Fatalf("expected upsert error")
	}
}

func TestTeamSyncService_DiscoverTeams_UpdatesStoredTeamsOnly(t *testing.T) {
	t.Parallel()

	provider := newDiscoveryFixture()
	repo := memory.NewTeamRepository([]team.Team{
		{ID: "t-2", Name: "CX 2", DivisionLabel: "old", PoolLabel: "Z", Active: true},
		{ID: "t-4", Name: "CX 4", DivisionLabel: "D4", PoolLabel: "Q", Active: true},
	})
	svc := newTeamSyncService(provider, repo)

	got, err := svc.DiscoverTeams(context.Background(), "")
	if err != nil {
		t.Fatalf("discover teams: %v", err)
	}
	if len(got.Discovered) != 1 || got.UpdatedCount != 1 {
		t.Fatalf("unexpected result: discovered=%d updated=%d", len(got.Discovered), got.UpdatedCount)
	}

	updated, _, _ := repo.GetByName(context.Background(), "CX 2")
	if updated.PoolID != "1" || updated.DivisionID != "DIV1" || updated.PoolLabel != "1" {
		t.Fatalf("unexpected placement: %+v", updated)
	}
	if updated.LinkToken != "cx_poule=1&D1=DIV1" || updated.Rank != 3 || updated.Points != 10 {
		t.Fatalf("unexpected standing: %+v", updated)
	}
	untouched, _, _ := repo.GetByName(context.Background(), "CX 4")
	if untouched.PoolLabel != "Q" {
		t.Fatalf("unrelated team must not change: %+v", untouched)
	}
}

func TestTeamSyncService_DiscoverTeams_NeverInserts(t *testing.T) {
	t.Parallel()

	repo := memory.NewTeamRepository(nil)
	svc := newTeamSyncService(newDiscoveryFixture(), repo)

	got, err := svc.DiscoverTeams(context.Background(), "222")
	if err != nil {
		t.Fatalf("discover teams: %v", err)
	}
	if got.UpdatedCount != 0 {
		t.Fatalf("unexpected updated count: %d", got.UpdatedCount)
	}
	items, _ := repo.ListActive(context.Background())
	if len(items) != 0 {
		t.Fatalf("discovery must not insert teams: %+v", items)
	}
}

func TestTeamSyncService_DiscoverTeams_RejectsOtherClub(t *testing.T) {
	t.Parallel()

	svc := newTeamSyncService(newDiscoveryFixture(), memory.NewTeamRepository(nil))
	if _, err := svc.DiscoverTeams(context.Background(), "333"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
