package postgres

import (
	"time"

	"github.com/riskibarqy/smartping-sync/internal/domain/team"
)

const teamTable = "club_teams"

var teamColumns = []string{
	"public_id", "name", "division_label", "pool_label", "phase", "rank", "played", "points",
	"wins", "losses", "draws", "link_token", "division_id", "pool_id", "active", "updated_at",
}

type teamTableModel struct {
	PublicID      string    `db:"public_id"`
	Name          string    `db:"name"`
	DivisionLabel string    `db:"division_label"`
	PoolLabel     string    `db:"pool_label"`
	Phase         string    `db:"phase"`
	Rank          int       `db:"rank"`
	Played        int       `db:"played"`
	Points        int       `db:"points"`
	Wins          int       `db:"wins"`
	Losses        int       `db:"losses"`
	Draws         int       `db:"draws"`
	LinkToken     string    `db:"link_token"`
	DivisionID    string    `db:"division_id"`
	PoolID        string    `db:"pool_id"`
	Active        bool      `db:"active"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// teamWriteModel is the column set written on insert; key columns are
// left untouched by updates.
type teamWriteModel struct {
	PublicID      string `db:"public_id,key"`
	Name          string `db:"name,key"`
	DivisionLabel string `db:"division_label"`
	PoolLabel     string `db:"pool_label"`
	Phase         string `db:"phase"`
	Rank          int    `db:"rank"`
	Played        int    `db:"played"`
	Points        int    `db:"points"`
	Wins          int    `db:"wins"`
	Losses        int    `db:"losses"`
	Draws         int    `db:"draws"`
	LinkToken     string `db:"link_token"`
	DivisionID    string `db:"division_id"`
	PoolID        string `db:"pool_id"`
	Active        bool   `db:"active"`
}

func (m teamTableModel) toDomain() team.Team {
	return team.Team{
		ID:            m.PublicID,
		Name:          m.Name,
		DivisionLabel: m.DivisionLabel,
		PoolLabel:     m.PoolLabel,
		Phase:         m.Phase,
		Rank:          m.Rank,
		Played:        m.Played,
		Points:        m.Points,
		Wins:          m.Wins,
		Losses:        m.Losses,
		Draws:         m.Draws,
		LinkToken:     m.LinkToken,
		DivisionID:    m.DivisionID,
		PoolID:        m.PoolID,
		Active:        m.Active,
		UpdatedAt:     m.UpdatedAt,
	}
}

func teamToWriteModel(t team.Team) teamWriteModel {
	return teamWriteModel{
		PublicID:      t.ID,
		Name:          t.Name,
		DivisionLabel: t.DivisionLabel,
		PoolLabel:     t.PoolLabel,
		Phase:         t.Phase,
		Rank:          t.Rank,
		Played:        t.Played,
		Points:        t.Points,
		Wins:          t.Wins,
		Losses:        t.Losses,
		Draws:         t.Draws,
		LinkToken:     t.LinkToken,
		DivisionID:    t.DivisionID,
		PoolID:        t.PoolID,
		Active:        t.Active,
	}
}
