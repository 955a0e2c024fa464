package player

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var licencePattern = regexp.MustCompile(`^[0-9A-Za-z]{1,12}$`)

// Player is a licensed club member tracked against federation rankings.
type Player struct {
	ID                  string
	Licence             string
	FirstName           string
	LastName            string
	ClubNumber          string
	Category            string
	Echelon             string
	RankLabel           string
	Points              int
	PointsExact         float64
	MonthlyPoints       float64
	PreviousMonthPoints float64
	SeasonStartPoints   float64
	Active              bool
	LastSyncedAt        *time.Time
}

func (p Player) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func (p Player) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	if !ValidLicence(p.Licence) {
		return fmt.Errorf("invalid player licence: %q", p.Licence)
	}

	return nil
}

func ValidLicence(licence string) bool {
	return licencePattern.MatchString(strings.TrimSpace(licence))
}
