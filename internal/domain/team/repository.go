package team

import "context"

// Repository describes team persistence needs from use cases.
// Update and upsert run mutate inside a per-record critical section.
type Repository interface {
	ListActive(ctx context.Context) ([]Team, error)
	GetByID(ctx context.Context, teamID string) (Team, bool, error)
	GetByName(ctx context.Context, name string) (Team, bool, error)
	UpdateByName(ctx context.Context, name string, mutate func(*Team) error) (Team, bool, error)
	UpsertByName(ctx context.Context, name string, mutate func(*Team) error) (Team, bool, error)
}
