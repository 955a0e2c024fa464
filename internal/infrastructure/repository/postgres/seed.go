package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/smartping-sync/internal/domain/team"
)

// BootstrapSeed inserts the given squads when club_teams holds no live row.
// It returns the number of rows inserted.
func BootstrapSeed(ctx context.Context, db *sqlx.DB, teams []team.Team) (int, error) {
	if len(teams) == 0 {
		return 0, nil
	}

	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM club_teams WHERE deleted_at IS NULL`); err != nil {
		return 0, fmt.Errorf("count club teams for bootstrap seed: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	repo := NewTeamRepository(db)
	inserted := 0
	for _, seed := range teams {
		seed := seed
		_, created, err := repo.UpsertByName(ctx, seed.Name, func(t *team.Team) error {
			if t.ID == "" {
				t.ID = seed.ID
			}
			t.Active = true
			return nil
		})
		if err != nil {
			return inserted, fmt.Errorf("seed club team %s: %w", seed.Name, err)
		}
		if created {
			inserted++
		}
	}
	return inserted, nil
}
