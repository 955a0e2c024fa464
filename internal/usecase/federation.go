package usecase

import "context"

const (
	SourceFederationLive = "federation-live"
	SourceLocalStore     = "local-store"
	SourceAPI            = "api"
	SourceCache          = "cache"
)

// FederationProvider is the typed view of the federation service used by the
// sync services. Upstream refusals and empty payloads come back as errors so
// callers can decide whether to continue.
type FederationProvider interface {
	Available() bool
	Organizations(ctx context.Context, kind, parentID string) ([]FederationOrganization, error)
	Events(ctx context.Context, organizationID, eventType string) ([]FederationEvent, error)
	Divisions(ctx context.Context, organizationID, eventID, eventType string) ([]FederationDivision, error)
	Pools(ctx context.Context, divisionID string) ([]FederationPool, error)
	Standings(ctx context.Context, divisionID, poolID string) ([]FederationStanding, error)
	Fixtures(ctx context.Context, divisionID, poolID string) ([]FederationFixture, error)
	ClubTeams(ctx context.Context, clubNumber string) ([]FederationClubTeam, error)
	Player(ctx context.Context, licence string) (FederationPlayer, error)
	PlayerHistory(ctx context.Context, licence string) ([]FederationRankingHistory, error)
	PlayerMatches(ctx context.Context, licence string) ([]FederationMatch, error)
}

type FederationOrganization struct {
	ID       string
	Name     string
	Code     string
	Kind     string
	ParentID string
}

type FederationEvent struct {
	ID   string
	Name string
	Type string
}

type FederationDivision struct {
	ID   string
	Name string
}

// FederationPool keeps the raw link token; the pool id is parsed out of it.
type FederationPool struct {
	Link string
	Name string
}

type FederationStanding struct {
	Rank          int
	TeamName      string
	ClubNumber    string
	Played        int
	Points        int
	Wins          int
	Losses        int
	Draws         int
	PointsFor     int
	PointsAgainst int
}

type FederationFixture struct {
	Round         string
	TeamA         string
	TeamB         string
	ScoreA        *int
	ScoreB        *int
	ScheduledDate string
	ActualDate    string
	Link          string
}

type FederationClubTeam struct {
	ID            string
	Name          string
	DivisionLabel string
	DivisionLink  string
	EventID       string
	EventName     string
}

type FederationPlayer struct {
	Licence           string
	FirstName         string
	LastName          string
	ClubNumber        string
	ClubName          string
	Category          string
	Echelon           string
	RankLabel         string
	CurrentPoints     *float64
	PreviousPoints    *float64
	SeasonStartPoints *float64
	OfficialPoints    *float64
}

type FederationRankingHistory struct {
	Season  string
	Phase   int
	Points  float64
	Echelon string
	Rank    string
}

// FederationMatch is one line of a player's match log. Date arrives as DD/MM/YYYY.
type FederationMatch struct {
	Date           string
	Victory        bool
	PointsDelta    float64
	OpponentName   string
	OpponentPoints string
	Coefficient    float64
	Round          string
	Competition    string
}
