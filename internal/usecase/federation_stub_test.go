package usecase

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errStubUpstream = errors.New("stub upstream failure")

// stubFederation serves canned federation data keyed by request arguments.
// Missing keys return empty lists; keys listed in fail return errStubUpstream.
type stubFederation struct {
	mu sync.Mutex

	unavailable bool

	leagues     []FederationOrganization
	departments map[string][]FederationOrganization
	events      map[string][]FederationEvent
	divisions   map[string][]FederationDivision
	pools       map[string][]FederationPool
	standings   map[string][]FederationStanding
	fixtures    map[string][]FederationFixture
	clubTeams   map[string][]FederationClubTeam
	players     map[string]FederationPlayer
	history     map[string][]FederationRankingHistory
	matches     map[string][]FederationMatch

	fail  map[string]bool
	calls map[string]int
}

func (s *stubFederation) record(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[key]++
	if s.fail[key] {
		return errStubUpstream
	}
	return nil
}

func (s *stubFederation) callCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

func (s *stubFederation) Available() bool {
	return !s.unavailable
}

func (s *stubFederation) Organizations(_ context.Context, kind, parentID string) ([]FederationOrganization, error) {
	if err := s.record("organizations:" + kind + ":" + parentID); err != nil {
		return nil, err
	}
	if kind == organizationLeague {
		return s.leagues, nil
	}
	return s.departments[parentID], nil
}

func (s *stubFederation) Events(_ context.Context, organizationID, _ string) ([]FederationEvent, error) {
	if err := s.record("events:" + organizationID); err != nil {
		return nil, err
	}
	return s.events[organizationID], nil
}

func (s *stubFederation) Divisions(_ context.Context, organizationID, eventID, _ string) ([]FederationDivision, error) {
	if err := s.record("divisions:" + organizationID + ":" + eventID); err != nil {
		return nil, err
	}
	return s.divisions[organizationID+":"+eventID], nil
}

func (s *stubFederation) Pools(_ context.Context, divisionID string) ([]FederationPool, error) {
	if err := s.record("pools:" + divisionID); err != nil {
		return nil, err
	}
	return s.pools[divisionID], nil
}

func (s *stubFederation) Standings(_ context.Context, divisionID, poolID string) ([]FederationStanding, error) {
	if err := s.record("standings:" + divisionID + ":" + poolID); err != nil {
		return nil, err
	}
	return s.standings[divisionID+":"+poolID], nil
}

func (s *stubFederation) Fixtures(_ context.Context, divisionID, poolID string) ([]FederationFixture, error) {
	if err := s.record("fixtures:" + divisionID + ":" + poolID); err != nil {
		return nil, err
	}
	return s.fixtures[divisionID+":"+poolID], nil
}

func (s *stubFederation) ClubTeams(_ context.Context, clubNumber string) ([]FederationClubTeam, error) {
	if err := s.record("club_teams:" + clubNumber); err != nil {
		return nil, err
	}
	return s.clubTeams[clubNumber], nil
}

func (s *stubFederation) Player(_ context.Context, licence string) (FederationPlayer, error) {
	if err := s.record("player:" + licence); err != nil {
		return FederationPlayer{}, err
	}
	p, ok := s.players[licence]
	if !ok {
		return FederationPlayer{}, errStubUpstream
	}
	return p, nil
}

func (s *stubFederation) PlayerHistory(_ context.Context, licence string) ([]FederationRankingHistory, error) {
	if err := s.record("history:" + licence); err != nil {
		return nil, err
	}
	return s.history[licence], nil
}

func (s *stubFederation) PlayerMatches(_ context.Context, licence string) ([]FederationMatch, error) {
	if err := s.record("matches:" + licence); err != nil {
		return nil, err
	}
	return s.matches[licence], nil
}

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }
