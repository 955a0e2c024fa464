package httpapi

import (
	"time"

	"github.com/riskibarqy/smartping-sync/internal/domain/player"
	"github.com/riskibarqy/smartping-sync/internal/domain/team"
	"github.com/riskibarqy/smartping-sync/internal/usecase"
)

type teamDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	DivisionLabel string `json:"division_label,omitempty"`
	PoolLabel     string `json:"pool_label,omitempty"`
	Phase         string `json:"phase,omitempty"`
	Rank          int    `json:"rank"`
	Played        int    `json:"played"`
	Points        int    `json:"points"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	Draws         int    `json:"draws"`
	LinkToken     string `json:"link_token,omitempty"`
	DivisionID    string `json:"division_id,omitempty"`
	PoolID        string `json:"pool_id,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

type teamListingDTO struct {
	Teams  []teamDTO `json:"teams"`
	Source string    `json:"source"`
	Error  string    `json:"error,omitempty"`
}

type standingDTO struct {
	Rank          int    `json:"rank"`
	TeamName      string `json:"team_name"`
	ClubNumber    string `json:"club_number,omitempty"`
	Played        int    `json:"played"`
	Points        int    `json:"points"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	Draws         int    `json:"draws"`
	PointsFor     int    `json:"points_for"`
	PointsAgainst int    `json:"points_against"`
}

type fixtureDTO struct {
	Round         string `json:"round"`
	TeamA         string `json:"team_a"`
	TeamB         string `json:"team_b"`
	ScoreA        *int   `json:"score_a"`
	ScoreB        *int   `json:"score_b"`
	ScheduledDate string `json:"scheduled_date,omitempty"`
	ActualDate    string `json:"actual_date,omitempty"`
}

type teamResultsDTO struct {
	Team      teamDTO       `json:"team"`
	Standings []standingDTO `json:"standings"`
	Fixtures  []fixtureDTO  `json:"fixtures"`
	FetchedAt string        `json:"fetched_at,omitempty"`
	Source    string        `json:"source"`
	Error     string        `json:"error,omitempty"`
}

type discoveredTeamDTO struct {
	Name          string `json:"name"`
	DivisionLabel string `json:"division_label"`
	DivisionID    string `json:"division_id"`
	PoolID        string `json:"pool_id"`
	PoolLabel     string `json:"pool_label"`
	Rank          int    `json:"rank"`
	Points        int    `json:"points"`
	Played        int    `json:"played"`
}

type discoveryResultDTO struct {
	Discovered   []discoveredTeamDTO `json:"discovered"`
	UpdatedCount int                 `json:"updated_count"`
	Log          []string            `json:"log"`
	Errors       []string            `json:"errors"`
	Interrupted  string              `json:"interrupted,omitempty"`
}

type playerDTO struct {
	Licence             string  `json:"licence"`
	FirstName           string  `json:"first_name"`
	LastName            string  `json:"last_name"`
	FullName            string  `json:"full_name"`
	Category            string  `json:"category,omitempty"`
	Echelon             string  `json:"echelon,omitempty"`
	RankLabel           string  `json:"rank_label,omitempty"`
	Points              int     `json:"points"`
	PointsExact         float64 `json:"points_exact"`
	MonthlyPoints       float64 `json:"monthly_points"`
	PreviousMonthPoints float64 `json:"previous_month_points"`
	SeasonStartPoints   float64 `json:"season_start_points"`
	LastSyncedAt        string  `json:"last_synced_at,omitempty"`
}

type playerDetailDTO struct {
	Player        playerDTO               `json:"player"`
	Matches       []usecase.PlayerMatch   `json:"matches"`
	SeasonHistory []usecase.SeasonRanking `json:"season_history"`
	Stats         *usecase.PlayerStats    `json:"stats,omitempty"`
	Source        string                  `json:"source"`
	Error         string                  `json:"error,omitempty"`
}

func teamToDTO(v team.Team) teamDTO {
	return teamDTO{
		ID:            v.ID,
		Name:          v.Name,
		DivisionLabel: v.DivisionLabel,
		PoolLabel:     v.PoolLabel,
		Phase:         v.Phase,
		Rank:          v.Rank,
		Played:        v.Played,
		Points:        v.Points,
		Wins:          v.Wins,
		Losses:        v.Losses,
		Draws:         v.Draws,
		LinkToken:     v.LinkToken,
		DivisionID:    v.DivisionID,
		PoolID:        v.PoolID,
		UpdatedAt:     formatTime(v.UpdatedAt),
	}
}

func teamListingToDTO(v usecase.TeamListing) teamListingDTO {
	teams := make([]teamDTO, 0, len(v.Teams))
	for _, item := range v.Teams {
		teams = append(teams, teamToDTO(item))
	}
	return teamListingDTO{Teams: teams, Source: v.Source, Error: v.Error}
}

func teamResultsToDTO(v usecase.TeamResults) teamResultsDTO {
	out := teamResultsDTO{
		Team:      teamToDTO(v.Team),
		Standings: make([]standingDTO, 0, len(v.Standings)),
		Fixtures:  make([]fixtureDTO, 0, len(v.Fixtures)),
		FetchedAt: formatTime(v.FetchedAt),
		Source:    v.Source,
		Error:     v.Error,
	}
	for _, row := range v.Standings {
		out.Standings = append(out.Standings, standingDTO(row))
	}
	for _, item := range v.Fixtures {
		out.Fixtures = append(out.Fixtures, fixtureDTO{
			Round:         item.Round,
			TeamA:         item.TeamA,
			TeamB:         item.TeamB,
			ScoreA:        item.ScoreA,
			ScoreB:        item.ScoreB,
			ScheduledDate: item.ScheduledDate,
			ActualDate:    item.ActualDate,
		})
	}
	return out
}

func discoveryResultToDTO(v usecase.DiscoveryResult) discoveryResultDTO {
	out := discoveryResultDTO{
		Discovered:   make([]discoveredTeamDTO, 0, len(v.Discovered)),
		UpdatedCount: v.UpdatedCount,
		Log:          nonNilStrings(v.Log),
		Errors:       nonNilStrings(v.Errors),
	}
	for _, item := range v.Discovered {
		out.Discovered = append(out.Discovered, discoveredTeamDTO{
			Name:          item.Name,
			DivisionLabel: item.DivisionLabel,
			DivisionID:    item.DivisionID,
			PoolID:        item.PoolID,
			PoolLabel:     item.PoolLabel,
			Rank:          item.Rank,
			Points:        item.Points,
			Played:        item.Played,
		})
	}
	return out
}

func playerToDTO(v player.Player) playerDTO {
	out := playerDTO{
		Licence:             v.Licence,
		FirstName:           v.FirstName,
		LastName:            v.LastName,
		FullName:            v.FullName(),
		Category:            v.Category,
		Echelon:             v.Echelon,
		RankLabel:           v.RankLabel,
		Points:              v.Points,
		PointsExact:         v.PointsExact,
		MonthlyPoints:       v.MonthlyPoints,
		PreviousMonthPoints: v.PreviousMonthPoints,
		SeasonStartPoints:   v.SeasonStartPoints,
	}
	if v.LastSyncedAt != nil {
		out.LastSyncedAt = formatTime(*v.LastSyncedAt)
	}
	return out
}

func playerDetailToDTO(v usecase.PlayerDetail) playerDetailDTO {
	matches := v.Matches
	if matches == nil {
		matches = []usecase.PlayerMatch{}
	}
	history := v.SeasonHistory
	if history == nil {
		history = []usecase.SeasonRanking{}
	}
	return playerDetailDTO{
		Player:        playerToDTO(v.Player),
		Matches:       matches,
		SeasonHistory: history,
		Stats:         v.Stats,
		Source:        v.Source,
		Error:         v.Error,
	}
}

func formatTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
