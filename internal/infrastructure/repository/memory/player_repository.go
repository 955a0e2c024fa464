package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/riskibarqy/smartping-sync/internal/domain/player"
)

type PlayerRepository struct {
	mu        sync.RWMutex
	byLicence map[string]player.Player
}

func NewPlayerRepository(players []player.Player) *PlayerRepository {
	byLicence := make(map[string]player.Player, len(players))
	for _, p := range players {
		byLicence[p.Licence] = p
	}

	return &PlayerRepository{byLicence: byLicence}
}

func (r *PlayerRepository) ListActive(_ context.Context) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]player.Player, 0, len(r.byLicence))
	for _, p := range r.byLicence {
		if p.Active {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].Licence < out[j].Licence
	})

	return out, nil
}

func (r *PlayerRepository) GetByLicence(_ context.Context, licence string) (player.Player, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byLicence[strings.TrimSpace(licence)]
	return p, ok, nil
}

func (r *PlayerRepository) UpdateByLicence(_ context.Context, licence string, mutate func(*player.Player) error) (player.Player, bool, error) {
	licence = strings.TrimSpace(licence)

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byLicence[licence]
	if !ok {
		return player.Player{}, false, nil
	}

	next := current
	if mutate != nil {
		if err := mutate(&next); err != nil {
			return player.Player{}, false, err
		}
	}
	next.ID = current.ID
	next.Licence = current.Licence
	if err := next.Validate(); err != nil {
		return player.Player{}, false, fmt.Errorf("validate player: %w", err)
	}
	r.byLicence[licence] = next

	return next, true, nil
}
