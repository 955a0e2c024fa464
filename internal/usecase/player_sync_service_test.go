package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/smartping-sync/internal/domain/player"
	"github.com/riskibarqy/smartping-sync/internal/infrastructure/repository/memory"
	playermock "github.com/riskibarqy/smartping-sync/internal/mocks/domain/player"
	"github.com/riskibarqy/smartping-sync/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

const testLicence = "6712345"

func storedPlayers() []player.Player {
	return []player.Player{
		{
			ID:                  "p-1",
			Licence:             testLicence,
			FirstName:           "Jeanne",
			LastName:            "Martin",
			Points:              1402,
			PointsExact:         1402.3,
			MonthlyPoints:       1402.3,
			PreviousMonthPoints: 1390,
			SeasonStartPoints:   1350,
			Active:              true,
		},
	}
}

func livePlayerFixture() *stubFederation {
	return &stubFederation{
		players: map[string]FederationPlayer{
			testLicence: {
				Licence:           testLicence,
				FirstName:         "Jeanne",
				LastName:          "MARTIN",
				ClubNumber:        "222",
				Category:          "S",
				CurrentPoints:     floatPtr(1431.6),
				PreviousPoints:    floatPtr(1402.3),
				SeasonStartPoints: floatPtr(1350),
			},
		},
		matches: map[string][]FederationMatch{
			testLicence: {
				{Date: "15/12/2024", Victory: true, PointsDelta: 12.5},
				{Date: "01/02/2025", Victory: true, PointsDelta: 20},
				{Date: "03/01/2025", Victory: false, PointsDelta: -3.2},
			},
		},
		history: map[string][]FederationRankingHistory{
			testLicence: {
				{Season: "Saison 2023 / 2024", Phase: 1, Points: 1300},
				{Season: "Saison 2024 / 2025", Phase: 1, Points: 1350},
			},
		},
	}
}

func newPlayerSyncService(provider FederationProvider, repo player.Repository) *PlayerSyncService {
	svc := NewPlayerSyncService(provider, repo, nil, logging.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestPlayerSyncService_GetPlayerDetail_LiveUpdatesSnapshot(t *testing.T) {
	t.Parallel()

	repo := memory.NewPlayerRepository(storedPlayers())
	svc := newPlayerSyncService(livePlayerFixture(), repo)

	got, err := svc.GetPlayerDetail(context.Background(), testLicence)
	if err != nil {
		t.Fatalf("get player detail: %v", err)
	}
	if got.Source != SourceAPI || got.Error != "" || got.Stats == nil {
		t.Fatalf("unexpected detail: source=%s error=%q stats=%v", got.Source, got.Error, got.Stats)
	}
	if got.Player.Points != 1432 || got.Player.PointsExact != 1431.6 || got.Player.LastName != "MARTIN" {
		t.Fatalf("unexpected merged player: %+v", got.Player)
	}
	if got.Player.LastSyncedAt == nil {
		t.Fatalf("last synced timestamp must be set")
	}
	if got.Matches[0].Date != "2025-02-01" || got.Matches[2].Date != "2024-12-15" {
		t.Fatalf("matches must be sorted newest first: %+v", got.Matches)
	}
	if got.SeasonHistory[0].Season != "Saison 2024 / 2025" {
		t.Fatalf("season history must be sorted newest first: %+v", got.SeasonHistory)
	}
	if got.Stats.Wins != 2 || got.Stats.Losses != 1 || got.Stats.MonthlyProgression != 29.3 || got.Stats.AnnualProgression != 81.6 {
		t.Fatalf("unexpected stats: %+v", got.Stats)
	}

	stored, _, _ := repo.GetByLicence(context.Background(), testLicence)
	if stored.Points != 1432 || stored.MonthlyPoints != 1431.6 || stored.PreviousMonthPoints != 1402.3 {
		t.Fatalf("store must hold the refreshed points: %+v", stored)
	}
}

func TestPlayerSyncService_GetPlayerDetail_AbsentPointsNeverRegress(t *testing.T) {
	t.Parallel()

	provider := livePlayerFixture()
	profile := provider.players[testLicence]
	profile.CurrentPoints = nil
	profile.PreviousPoints = nil
	profile.SeasonStartPoints = nil
	provider.players[testLicence] = profile

	repo := memory.NewPlayerRepository(storedPlayers())
	got, err := newPlayerSyncService(provider, repo).GetPlayerDetail(context.Background(), testLicence)
	if err != nil {
		t.Fatalf("get player detail: %v", err)
	}
	if got.Player.Points != 1402 || got.Player.PointsExact != 1402.3 {
		t.Fatalf("points must keep the stored value: %+v", got.Player)
	}
	if got.Player.PreviousMonthPoints != 1390 || got.Player.SeasonStartPoints != 1350 {
		t.Fatalf("absent fields must keep stored values: %+v", got.Player)
	}
	if got.Stats.MonthlyProgression != 0 || got.Stats.AnnualProgression != 0 {
		t.Fatalf("absent points must yield zero progression: %+v", got.Stats)
	}
}

func TestPlayerSyncService_GetPlayerDetail_FallsBackToSnapshot(t *testing.T) {
	t.Parallel()

	provider := livePlayerFixture()
	provider.fail = map[string]bool{"matches:" + testLicence: true}
	repo := memory.NewPlayerRepository(storedPlayers())
	svc := newPlayerSyncService(provider, repo)

	for i := 0; i < 2; i++ {
		got, err := svc.GetPlayerDetail(context.Background(), testLicence)
		if err != nil {
			t.Fatalf("get player detail: %v", err)
		}
		if got.Source != SourceCache || got.Error == "" || got.Stats != nil {
			t.Fatalf("attempt %d: unexpected fallback: source=%s error=%q stats=%v", i, got.Source, got.Error, got.Stats)
		}
		if got.Player.Points != 1402 || got.Player.LastSyncedAt != nil {
			t.Fatalf("attempt %d: snapshot must be unchanged: %+v", i, got.Player)
		}
	}
}

func TestPlayerSyncService_GetPlayerDetail_NoCredentials(t *testing.T) {
	t.Parallel()

	provider := &stubFederation{unavailable: true}
	svc := newPlayerSyncService(provider, memory.NewPlayerRepository(storedPlayers()))

	got, err := svc.GetPlayerDetail(context.Background(), testLicence)
	if err != nil {
		t.Fatalf("get player detail: %v", err)
	}
	if got.Source != SourceCache || got.Error != "" {
		t.Fatalf("unexpected detail: source=%s error=%q", got.Source, got.Error)
	}
	if provider.callCount("player:"+testLicence) != 0 {
		t.Fatalf("no live call expected without credentials")
	}
}

func TestPlayerSyncService_GetPlayerDetail_UnknownPlayerServesEmptySnapshot(t *testing.T) {
	t.Parallel()

	liveDown := livePlayerFixture()
	liveDown.fail = map[string]bool{"player:" + testLicence: true}

	tests := []struct {
		name     string
		provider *stubFederation
	}{
		{name: "live lookup fails", provider: liveDown},
		{name: "no credentials", provider: &stubFederation{unavailable: true}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := memory.NewPlayerRepository(nil)
			got, err := newPlayerSyncService(tc.provider, repo).GetPlayerDetail(context.Background(), testLicence)
			if err != nil {
				t.Fatalf("get player detail: %v", err)
			}
			if got.Source != SourceCache || got.Error == "" || got.Stats != nil {
				t.Fatalf("unexpected detail: source=%s error=%q stats=%v", got.Source, got.Error, got.Stats)
			}
			if got.Player.Licence != testLicence || got.Player.Points != 0 {
				t.Fatalf("unexpected player got=%+v", got.Player)
			}
			if got.Matches == nil || len(got.Matches) != 0 || got.SeasonHistory == nil || len(got.SeasonHistory) != 0 {
				t.Fatalf("expected empty non-nil lists got matches=%v history=%v", got.Matches, got.SeasonHistory)
			}
			if _, ok, _ := repo.GetByLicence(context.Background(), testLicence); ok {
				t.Fatalf("unknown player must not be inserted")
			}
		})
	}
}

func TestPlayerSyncService_GetPlayerDetail_UnknownPlayerIsNotPersisted(t *testing.T) {
	t.Parallel()

	repo := memory.NewPlayerRepository(nil)
	got, err := newPlayerSyncService(livePlayerFixture(), repo).GetPlayerDetail(context.Background(), testLicence)
	if err != nil {
		t.Fatalf("get player detail: %v", err)
	}
	if got.Source != SourceAPI || got.Player.Licence != testLicence || got.Player.Points != 1432 {
		t.Fatalf("unexpected live view: %+v", got)
	}
	if _, ok, _ := repo.GetByLicence(context.Background(), testLicence); ok {
		t.Fatalf("unknown player must not be inserted")
	}
}

func TestPlayerSyncService_GetPlayerDetail_InvalidLicence(t *testing.T) {
	t.Parallel()

	svc := newPlayerSyncService(livePlayerFixture(), memory.NewPlayerRepository(nil))
	if _, err := svc.GetPlayerDetail(context.Background(), "67-12"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPlayerSyncService_GetPlayerDetail_UpdateErrorUsingMockery(t *testing.T) {
	t.Parallel()

	repo := playermock.NewRepository(t)
	repo.On("GetByLicence", mock.Anything, testLicence).Return(storedPlayers()[0], true, nil).Once()
	repo.On("UpdateByLicence", mock.Anything, testLicence, mock.Anything).Return(player.Player{}, false, errors.New("db down")).Once()

	svc := newPlayerSyncService(livePlayerFixture(), repo)
	if _, err := svc.GetPlayerDetail(context.Background(), testLicence); err == nil {
		t.Fatalf("expected update error")
	}
}
