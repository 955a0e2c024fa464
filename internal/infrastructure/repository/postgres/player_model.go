package postgres

import (
	"database/sql"

	"github.com/riskibarqy/smartping-sync/internal/domain/player"
)

const playerTable = "club_players"

var playerSelectColumns = []string{
	"public_id",
	"licence",
	"first_name",
	"last_name",
	"club_number",
	"category",
	"echelon",
	"rank_label",
	"points",
	"points_exact",
	"monthly_points",
	"previous_month_points",
	"season_start_points",
	"active",
	"last_synced_at",
}

type playerTableModel struct {
	PublicID            string       `db:"public_id,key"`
	Licence             string       `db:"licence,key"`
	FirstName           string       `db:"first_name"`
	LastName            string       `db:"last_name"`
	ClubNumber          string       `db:"club_number"`
	Category            string       `db:"category"`
	Echelon             string       `db:"echelon"`
	RankLabel           string       `db:"rank_label"`
	Points              int          `db:"points"`
	PointsExact         float64      `db:"points_exact"`
	MonthlyPoints       float64      `db:"monthly_points"`
	PreviousMonthPoints float64      `db:"previous_month_points"`
	SeasonStartPoints   float64      `db:"season_start_points"`
	Active              bool         `db:"active"`
	LastSyncedAt        sql.NullTime `db:"last_synced_at"`
}

func (m playerTableModel) toDomain() player.Player {
	return player.Player{
		ID:                  m.PublicID,
		Licence:             m.Licence,
		FirstName:           m.FirstName,
		LastName:            m.LastName,
		ClubNumber:          m.ClubNumber,
		Category:            m.Category,
		Echelon:             m.Echelon,
		RankLabel:           m.RankLabel,
		Points:              m.Points,
		PointsExact:         m.PointsExact,
		MonthlyPoints:       m.MonthlyPoints,
		PreviousMonthPoints: m.PreviousMonthPoints,
		SeasonStartPoints:   m.SeasonStartPoints,
		Active:              m.Active,
		LastSyncedAt:        nullTimeToPtr(m.LastSyncedAt),
	}
}

func playerToTableModel(p player.Player) playerTableModel {
	return playerTableModel{
		PublicID:            p.ID,
		Licence:             p.Licence,
		FirstName:           p.FirstName,
		LastName:            p.LastName,
		ClubNumber:          p.ClubNumber,
		Category:            p.Category,
		Echelon:             p.Echelon,
		RankLabel:           p.RankLabel,
		Points:              p.Points,
		PointsExact:         p.PointsExact,
		MonthlyPoints:       p.MonthlyPoints,
		PreviousMonthPoints: p.PreviousMonthPoints,
		SeasonStartPoints:   p.SeasonStartPoints,
		Active:              p.Active,
		LastSyncedAt:        ptrToNullTime(p.LastSyncedAt),
	}
}
