package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/smartping-sync/internal/domain/team"
)

type TeamRepository struct {
	mu     sync.RWMutex
	byName map[string]team.Team
	now    func() time.Time
}

func NewTeamRepository(teams []team.Team) *TeamRepository {
	byName := make(map[string]team.Team, len(teams))
	for _, item := range teams {
		byName[item.Name] = item
	}

	return &TeamRepository{byName: byName, now: time.Now}
}

func (r *TeamRepository) ListActive(_ context.Context) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Team, 0, len(r.byName))
	for _, item := range r.byName {
		if item.Active {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

func (r *TeamRepository) GetByID(_ context.Context, teamID string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.byName {
		if item.ID == teamID {
			return item, true, nil
		}
	}

	return team.Team{}, false, nil
}

func (r *TeamRepository) GetByName(_ context.Context, name string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byName[strings.TrimSpace(name)]
	return item, ok, nil
}

func (r *TeamRepository) UpdateByName(_ context.Context, name string, mutate func(*team.Team) error) (team.Team, bool, error) {
	name = strings.TrimSpace(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byName[name]
	if !ok {
		return team.Team{}, false, nil
	}
	updated, err := r.apply(current, mutate)
	if err != nil {
		return team.Team{}, false, err
	}
	r.byName[name] = updated

	return updated, true, nil
}

func (r *TeamRepository) UpsertByName(_ context.Context, name string, mutate func(*team.Team) error) (team.Team, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return team.Team{}, false, fmt.Errorf("team name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.byName[name]
	if !exists {
		current = team.Team{Name: name, Active: true}
	}
	updated, err := r.apply(current, mutate)
	if err != nil {
		return team.Team{}, false, err
	}
	r.byName[name] = updated

	return updated, !exists, nil
}

func (r *TeamRepository) apply(current team.Team, mutate func(*team.Team) error) (team.Team, error) {
	next := current
	if mutate != nil {
		if err := mutate(&next); err != nil {
			return team.Team{}, err
		}
	}
	next.Name = current.Name
	next.UpdatedAt = r.now().UTC()
	if err := next.Validate(); err != nil {
		return team.Team{}, fmt.Errorf("validate team: %w", err)
	}
	return next, nil
}
