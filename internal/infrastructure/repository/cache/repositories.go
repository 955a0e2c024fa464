// Package cache decorates the team and player repositories with a TTL
// read cache. Every successful write drops the whole entity prefix.
package cache

import (
	"context"
	"slices"
	"strings"

	"github.com/riskibarqy/smartping-sync/internal/domain/player"
	"github.com/riskibarqy/smartping-sync/internal/domain/team"
	basecache "github.com/riskibarqy/smartping-sync/internal/platform/cache"
)

const (
	teamKeyPrefix   = "team:"
	playerKeyPrefix = "player:"
)

// lookup remembers misses too, so an unknown name does not hit the store on
// every request until the next write.
type lookup[T any] struct {
	value  T
	exists bool
}

func cachedLookup[T any](ctx context.Context, store *basecache.Store, key string, load func(context.Context) (T, bool, error)) (T, bool, error) {
	hit, err := basecache.Load(ctx, store, key, func(ctx context.Context) (lookup[T], error) {
		value, exists, err := load(ctx)
		return lookup[T]{value: value, exists: exists}, err
	})
	return hit.value, hit.exists, err
}

func cachedList[T any](ctx context.Context, store *basecache.Store, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	items, err := basecache.Load(ctx, store, key, func(ctx context.Context) ([]T, error) {
		items, err := load(ctx)
		return slices.Clone(items), err
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(items), nil
}

type TeamRepository struct {
	next  team.Repository
	cache *basecache.Store
}

func NewTeamRepository(next team.Repository, cache *basecache.Store) *TeamRepository {
	return &TeamRepository{next: next, cache: cache}
}

func (r *TeamRepository) ListActive(ctx context.Context) ([]team.Team, error) {
	return cachedList(ctx, r.cache, teamKeyPrefix+"list", r.next.ListActive)
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	teamID = strings.TrimSpace(teamID)
	return cachedLookup(ctx, r.cache, teamKeyPrefix+"id:"+teamID, func(ctx context.Context) (team.Team, bool, error) {
		return r.next.GetByID(ctx, teamID)
	})
}

func (r *TeamRepository) GetByName(ctx context.Context, name string) (team.Team, bool, error) {
	name = strings.TrimSpace(name)
	return cachedLookup(ctx, r.cache, teamKeyPrefix+"name:"+name, func(ctx context.Context) (team.Team, bool, error) {
		return r.next.GetByName(ctx, name)
	})
}

// Writes go straight to the wrapped repository so the mutation sees locked
// state.
func (r *TeamRepository) UpdateByName(ctx context.Context, name string, mutate func(*team.Team) error) (team.Team, bool, error) {
	item, found, err := r.next.UpdateByName(ctx, name, mutate)
	if err == nil && found {
		r.cache.DeletePrefix(ctx, teamKeyPrefix)
	}
	return item, found, err
}

func (r *TeamRepository) UpsertByName(ctx context.Context, name string, mutate func(*team.Team) error) (team.Team, bool, error) {
	item, created, err := r.next.UpsertByName(ctx, name, mutate)
	if err == nil {
		r.cache.DeletePrefix(ctx, teamKeyPrefix)
	}
	return item, created, err
}

type PlayerRepository struct {
	next  player.Repository
	cache *basecache.Store
}

func NewPlayerRepository(next player.Repository, cache *basecache.Store) *PlayerRepository {
	return &PlayerRepository{next: next, cache: cache}
}

func (r *PlayerRepository) ListActive(ctx context.Context) ([]player.Player, error) {
	return cachedList(ctx, r.cache, playerKeyPrefix+"list", r.next.ListActive)
}

func (r *PlayerRepository) GetByLicence(ctx context.Context, licence string) (player.Player, bool, error) {
	licence = strings.TrimSpace(licence)
	return cachedLookup(ctx, r.cache, playerKeyPrefix+"licence:"+licence, func(ctx context.Context) (player.Player, bool, error) {
		return r.next.GetByLicence(ctx, licence)
	})
}

func (r *PlayerRepository) UpdateByLicence(ctx context.Context, licence string, mutate func(*player.Player) error) (player.Player, bool, error) {
	item, found, err := r.next.UpdateByLicence(ctx, licence, mutate)
	if err == nil && found {
		r.cache.DeletePrefix(ctx, playerKeyPrefix)
	}
	return item, found, err
}
