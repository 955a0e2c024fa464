package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/smartping-sync/internal/platform/logging"
)

const (
	organizationLeague     = "L"
	organizationDepartment = "D"

	defaultDiscoveryEventType = "E"
)

type DiscoveryConfig struct {
	LeaguePatterns     []string
	DepartmentCodes    []string
	DepartmentPatterns []string
	EventType          string
	RequestDelay       time.Duration
}

// DiscoveredTeam is one standings row of the club found while crawling.
type DiscoveredTeam struct {
	Name          string
	DivisionLabel string
	DivisionID    string
	PoolID        string
	PoolLabel     string
	Rank          int
	Points        int
	Played        int
	Wins          int
	Losses        int
	Draws         int
}

type DiscoveryReport struct {
	Discovered []DiscoveredTeam
	Log        []string
	Errors     []string
}

func (r *DiscoveryReport) logf(format string, args ...any) {
	r.Log = append(r.Log, fmt.Sprintf(format, args...))
}

func (r *DiscoveryReport) failf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// stepResult carries one upstream step outcome so the crawler can record a
// failure and move on to the next sibling.
type stepResult[T any] struct {
	Value T
	Err   error
}

func runStep[T any](ctx context.Context, fn func(context.Context) (T, error)) stepResult[T] {
	v, err := fn(ctx)
	return stepResult[T]{Value: v, Err: err}
}

// DiscoveryService walks league > department > event > division > pool >
// standings to find every pool the club plays in.
type DiscoveryService struct {
	provider FederationProvider
	matcher  *IdentityMatcher
	cfg      DiscoveryConfig
	logger   *logging.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewDiscoveryService(provider FederationProvider, matcher *IdentityMatcher, cfg DiscoveryConfig, logger *logging.Logger) *DiscoveryService {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.EventType) == "" {
		cfg.EventType = defaultDiscoveryEventType
	}
	return &DiscoveryService{
		provider: provider,
		matcher:  matcher,
		cfg:      cfg,
		logger:   logger.With("component", "discovery_service"),
		sleep:    sleepContext,
	}
}

// Crawl is exhaustive: a failing branch is recorded in the report and its
// siblings are still visited. Only cancellation stops it early, returning the
// partial report with the context error.
func (s *DiscoveryService) Crawl(ctx context.Context, clubNumber string) (DiscoveryReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DiscoveryService.Crawl")
	defer span.End()

	report := DiscoveryReport{Discovered: []DiscoveredTeam{}, Log: []string{}, Errors: []string{}}
	if s.provider == nil || !s.provider.Available() {
		return report, fmt.Errorf("%w: discovery needs live federation access", ErrFederationUnavailable)
	}
	matcher := s.matcher.ForClub(clubNumber)
	report.logf("discovery started for club %s", matcher.ClubNumber())
	s.renewSession(ctx, &report)

	orgIDs := s.organizationIDs(ctx, &report)
	if len(orgIDs) == 0 {
		report.failf("no organization matched the configured league and department rules")
		return report, nil
	}

	visited := make(map[string]struct{})
	for _, orgID := range orgIDs {
		events := runStep(ctx, func(ctx context.Context) ([]FederationEvent, error) {
			return s.provider.Events(ctx, orgID, s.cfg.EventType)
		})
		if events.Err != nil {
			report.failf("events of organization %s: %v", orgID, events.Err)
			continue
		}
		report.logf("organization %s: %d event(s)", orgID, len(events.Value))

		for _, event := range events.Value {
			if err := s.crawlEvent(ctx, &report, matcher, orgID, event, visited); err != nil {
				return report, err
			}
			if err := s.sleep(ctx, s.cfg.RequestDelay); err != nil {
				return report, err
			}
		}
	}

	report.logf("discovery finished: %d team(s), %d error(s)", len(report.Discovered), len(report.Errors))
	s.logger.InfoContext(ctx, "discovery crawl finished",
		"club_number", matcher.ClubNumber(),
		"discovered", len(report.Discovered),
		"errors", len(report.Errors),
	)
	return report, nil
}

// sessionInitializer is implemented by providers whose session serial can be
// renewed before a long crawl.
type sessionInitializer interface {
	Initialize(ctx context.Context) (bool, error)
}

// renewSession never fails the crawl; a rejected serial leaves the provider on
// its fallback.
func (s *DiscoveryService) renewSession(ctx context.Context, report *DiscoveryReport) {
	initializer, ok := s.provider.(sessionInitializer)
	if !ok {
		return
	}
	accepted, err := initializer.Initialize(ctx)
	switch {
	case err != nil:
		report.logf("session initialization failed: %v", err)
		s.logger.WarnContext(ctx, "discovery session initialization failed", "error", err)
	case !accepted:
		report.logf("session initialization rejected, using fallback serial")
	default:
		report.logf("session initialized")
	}
}

func (s *DiscoveryService) crawlEvent(
	ctx context.Context,
	report *DiscoveryReport,
	matcher *IdentityMatcher,
	orgID string,
	event FederationEvent,
	visited map[string]struct{},
) error {
	divisions := runStep(ctx, func(ctx context.Context) ([]FederationDivision, error) {
		return s.provider.Divisions(ctx, orgID, event.ID, s.cfg.EventType)
	})
	if divisions.Err != nil {
		report.failf("divisions of event %s (%s): %v", event.ID, event.Name, divisions.Err)
		return nil
	}

	for _, division := range divisions.Value {
		pools := runStep(ctx, func(ctx context.Context) ([]FederationPool, error) {
			return s.provider.Pools(ctx, division.ID)
		})
		if pools.Err != nil {
			report.failf("pools of division %s (%s): %v", division.ID, division.Name, pools.Err)
		} else {
			for _, pool := range pools.Value {
				s.crawlPool(ctx, report, matcher, event, division, pool, visited)
				if err := s.sleep(ctx, s.cfg.RequestDelay); err != nil {
					return err
				}
			}
		}
		if err := s.sleep(ctx, s.cfg.RequestDelay); err != nil {
			return err
		}
	}
	return nil
}

func (s *DiscoveryService) crawlPool(
	ctx context.Context,
	report *DiscoveryReport,
	matcher *IdentityMatcher,
	event FederationEvent,
	division FederationDivision,
	pool FederationPool,
	visited map[string]struct{},
) {
	linkDivisionID, poolID, ok := ParsePoolLink(pool.Link)
	if !ok {
		report.logf("skipped pool %q of division %s: no pool id in link", pool.Name, division.ID)
		return
	}
	divisionID := linkDivisionID
	if divisionID == "" {
		divisionID = division.ID
	}

	key := divisionID + "/" + poolID
	if _, seen := visited[key]; seen {
		return
	}
	visited[key] = struct{}{}

	standings := runStep(ctx, func(ctx context.Context) ([]FederationStanding, error) {
		return s.provider.Standings(ctx, divisionID, poolID)
	})
	if standings.Err != nil {
		report.failf("standings of pool %s/%s: %v", divisionID, poolID, standings.Err)
		return
	}

	poolLabel := PoolLabel(pool.Name)
	if poolLabel == "" {
		poolLabel = strings.TrimSpace(pool.Name)
	}
	for _, row := range standings.Value {
		if !matcher.MatchesClub(row.ClubNumber, row.TeamName) {
			continue
		}
		report.Discovered = append(report.Discovered, DiscoveredTeam{
			Name:          row.TeamName,
			DivisionLabel: strings.TrimSpace(event.Name + " - " + division.Name),
			DivisionID:    divisionID,
			PoolID:        poolID,
			PoolLabel:     poolLabel,
			Rank:          row.Rank,
			Points:        row.Points,
			Played:        row.Played,
			Wins:          row.Wins,
			Losses:        row.Losses,
			Draws:         row.Draws,
		})
		report.logf("found %s in %s / %s (rank %d, %d pts)", row.TeamName, division.Name, pool.Name, row.Rank, row.Points)
	}
}

// organizationIDs resolves the department first and the league second.
func (s *DiscoveryService) organizationIDs(ctx context.Context, report *DiscoveryReport) []string {
	leagues := runStep(ctx, func(ctx context.Context) ([]FederationOrganization, error) {
		return s.provider.Organizations(ctx, organizationLeague, "")
	})
	var league *FederationOrganization
	if leagues.Err != nil {
		report.failf("leagues: %v", leagues.Err)
	} else if found, ok := findOrganization(leagues.Value, nil, s.cfg.LeaguePatterns); ok {
		league = &found
		report.logf("league: %s (%s)", found.Name, found.ID)
	} else {
		report.failf("no league matched patterns %v", s.cfg.LeaguePatterns)
		report.logf("league candidates: %s", organizationCandidates(leagues.Value))
	}

	parentID := ""
	if league != nil {
		parentID = league.ID
	}
	departments := runStep(ctx, func(ctx context.Context) ([]FederationOrganization, error) {
		return s.provider.Organizations(ctx, organizationDepartment, parentID)
	})
	var department *FederationOrganization
	if departments.Err != nil {
		report.failf("departments: %v", departments.Err)
	} else if found, ok := findOrganization(departments.Value, s.cfg.DepartmentCodes, s.cfg.DepartmentPatterns); ok {
		department = &found
		report.logf("department: %s (%s)", found.Name, found.ID)
	} else {
		report.logf("no department matched codes %v or patterns %v; candidates: %s",
			s.cfg.DepartmentCodes, s.cfg.DepartmentPatterns, organizationCandidates(departments.Value))
	}

	ids := make([]string, 0, 2)
	seen := make(map[string]struct{}, 2)
	for _, org := range []*FederationOrganization{department, league} {
		if org == nil || org.ID == "" {
			continue
		}
		if _, ok := seen[org.ID]; ok {
			continue
		}
		seen[org.ID] = struct{}{}
		ids = append(ids, org.ID)
	}
	return ids
}

// organizationCandidates lists what the federation returned so a wrong
// pattern can be corrected from the report alone.
func organizationCandidates(orgs []FederationOrganization) string {
	if len(orgs) == 0 {
		return "none"
	}
	names := make([]string, 0, len(orgs))
	for _, org := range orgs {
		code := strings.TrimSpace(org.Code)
		if code == "" {
			code = org.ID
		}
		names = append(names, fmt.Sprintf("%s (%s)", strings.TrimSpace(org.Name), code))
	}
	return strings.Join(names, ", ")
}

// findOrganization prefers an exact code match over a folded name pattern.
func findOrganization(orgs []FederationOrganization, codes, patterns []string) (FederationOrganization, bool) {
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		for _, org := range orgs {
			if strings.EqualFold(strings.TrimSpace(org.Code), code) {
				return org, true
			}
		}
	}
	for _, pattern := range patterns {
		folded := foldText(pattern)
		if folded == "" {
			continue
		}
		for _, org := range orgs {
			if strings.Contains(foldText(org.Name), folded) || strings.EqualFold(strings.TrimSpace(org.Code), strings.TrimSpace(pattern)) {
				return org, true
			}
		}
	}
	return FederationOrganization{}, false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
