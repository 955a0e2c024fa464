package team

import (
	"fmt"
	"time"
)

// Team is one of the club's registered squads. Competition placement fields
// are refreshed from federation standings.
type Team struct {
	ID            string
	Name          string
	DivisionLabel string
	PoolLabel     string
	Phase         string
	Rank          int
	Played        int
	Points        int
	Wins          int
	Losses        int
	Draws         int
	LinkToken     string
	DivisionID    string
	PoolID        string
	Active        bool
	UpdatedAt     time.Time
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}

	return nil
}
