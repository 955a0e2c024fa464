package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/riskibarqy/smartping-sync/internal/domain/player"
	"github.com/riskibarqy/smartping-sync/internal/platform/logging"
	"golang.org/x/sync/errgroup"
)

// PlayerDetail is the unified player view. Stats is nil unless live data was
// used.
type PlayerDetail struct {
	Player        player.Player
	Matches       []PlayerMatch
	SeasonHistory []SeasonRanking
	Stats         *PlayerStats
	Source        string
	Error         string
}

type playerLiveView struct {
	profile FederationPlayer
	matches []FederationMatch
	history []FederationRankingHistory
}

type PlayerSyncService struct {
	provider   FederationProvider
	playerRepo player.Repository
	notifier   *IndexNotifier
	logger     *logging.Logger
	now        func() time.Time
}

func NewPlayerSyncService(provider FederationProvider, playerRepo player.Repository, notifier *IndexNotifier, logger *logging.Logger) *PlayerSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PlayerSyncService{
		provider:   provider,
		playerRepo: playerRepo,
		notifier:   notifier,
		logger:     logger.With("component", "player_sync_service"),
		now:        time.Now,
	}
}

const errPlayerUnavailable = "federation credentials are not configured and player is not stored"

// GetPlayerDetail prefers live federation data and falls back to the stored
// snapshot on any upstream failure. A player that is neither stored nor
// reachable live gets an empty cache-sourced record carrying the reason.
func (s *PlayerSyncService) GetPlayerDetail(ctx context.Context, licence string) (PlayerDetail, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerSyncService.GetPlayerDetail")
	defer span.End()

	licence = strings.TrimSpace(licence)
	if !player.ValidLicence(licence) {
		return PlayerDetail{}, fmt.Errorf("%w: invalid licence %q", ErrInvalidInput, licence)
	}

	stored, found, err := s.playerRepo.GetByLicence(ctx, licence)
	if err != nil {
		return PlayerDetail{}, fmt.Errorf("get player %s: %w", licence, err)
	}

	if s.provider == nil || !s.provider.Available() {
		if !found {
			// Unknown players still get a well-formed, empty record.
			return snapshotDetail(player.Player{Licence: licence}, errPlayerUnavailable), nil
		}
		return snapshotDetail(stored, ""), nil
	}

	live, err := s.fetchLive(ctx, licence)
	if err != nil {
		s.logger.WarnContext(ctx, "live player lookup failed, serving snapshot", "licence", licence, "error", err)
		if !found {
			stored = player.Player{Licence: licence}
		}
		return snapshotDetail(stored, err.Error()), nil
	}

	matches := toPlayerMatches(live.matches)
	history := toSeasonRankings(live.history)
	points := ResolvePoints(live.profile.CurrentPoints, live.profile.PreviousPoints, live.profile.SeasonStartPoints, stored.PointsExact)
	stats := ComputePlayerStats(matches, points)

	current := stored
	if found {
		updated, ok, err := s.playerRepo.UpdateByLicence(ctx, licence, s.applyLiveProfile(live.profile))
		if err != nil {
			return PlayerDetail{}, fmt.Errorf("update player %s: %w", licence, err)
		}
		if ok {
			current = updated
		}
		if reread, ok, err := s.playerRepo.GetByLicence(ctx, licence); err == nil && ok {
			current = reread
		}
		s.notifier.PlayerUpdated(ctx, licence, SourceAPI)
	} else {
		current = player.Player{Licence: licence}
		_ = s.applyLiveProfile(live.profile)(&current)
	}

	return PlayerDetail{
		Player:        current,
		Matches:       matches,
		SeasonHistory: history,
		Stats:         &stats,
		Source:        SourceAPI,
	}, nil
}

// fetchLive runs the three lookups concurrently; the first failure cancels
// the others.
func (s *PlayerSyncService) fetchLive(ctx context.Context, licence string) (playerLiveView, error) {
	var view playerLiveView
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		profile, err := s.provider.Player(gctx, licence)
		if err != nil {
			return fmt.Errorf("player profile: %w", err)
		}
		view.profile = profile
		return nil
	})
	g.Go(func() error {
		matches, err := s.provider.PlayerMatches(gctx, licence)
		if err != nil {
			return fmt.Errorf("player matches: %w", err)
		}
		view.matches = matches
		return nil
	})
	g.Go(func() error {
		history, err := s.provider.PlayerHistory(gctx, licence)
		if err != nil {
			return fmt.Errorf("player history: %w", err)
		}
		view.history = history
		return nil
	})
	if err := g.Wait(); err != nil {
		return playerLiveView{}, err
	}
	return view, nil
}

// applyLiveProfile copies cacheable fields. Absent point values keep what
// was stored before.
func (s *PlayerSyncService) applyLiveProfile(profile FederationPlayer) func(*player.Player) error {
	return func(p *player.Player) error {
		p.FirstName = keepNonEmpty(profile.FirstName, p.FirstName)
		p.LastName = keepNonEmpty(profile.LastName, p.LastName)
		p.ClubNumber = keepNonEmpty(profile.ClubNumber, p.ClubNumber)
		p.Category = keepNonEmpty(profile.Category, p.Category)
		p.Echelon = keepNonEmpty(profile.Echelon, p.Echelon)
		p.RankLabel = keepNonEmpty(profile.RankLabel, p.RankLabel)

		points := ResolvePoints(profile.CurrentPoints, profile.PreviousPoints, profile.SeasonStartPoints, p.PointsExact)
		p.PointsExact = points.Current
		p.Points = int(math.Round(points.Current))
		if profile.CurrentPoints != nil {
			p.MonthlyPoints = *profile.CurrentPoints
		}
		if profile.PreviousPoints != nil {
			p.PreviousMonthPoints = *profile.PreviousPoints
		}
		if profile.SeasonStartPoints != nil {
			p.SeasonStartPoints = *profile.SeasonStartPoints
		}

		syncedAt := s.now().UTC()
		p.LastSyncedAt = &syncedAt
		return nil
	}
}

func snapshotDetail(stored player.Player, errMsg string) PlayerDetail {
	return PlayerDetail{
		Player:        stored,
		Matches:       []PlayerMatch{},
		SeasonHistory: []SeasonRanking{},
		Source:        SourceCache,
		Error:         errMsg,
	}
}
