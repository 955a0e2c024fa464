package memory

import (
	"strconv"

	"github.com/riskibarqy/smartping-sync/internal/domain/team"
)

// SeedTeams builds the squads of a fresh local store. Placement fields stay
// empty until the first live refresh or discovery run.
func SeedTeams(abbreviation string, count int) []team.Team {
	if abbreviation == "" {
		abbreviation = "CLUB"
	}
	out := make([]team.Team, 0, count)
	for i := 1; i <= count; i++ {
		n := strconv.Itoa(i)
		out = append(out, team.Team{
			ID:     "seed-team-" + n,
			Name:   abbreviation + " " + n,
			Active: true,
		})
	}
	return out
}
