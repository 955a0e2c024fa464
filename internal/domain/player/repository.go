package player

import "context"

// Repository describes player persistence needs from use cases.
type Repository interface {
	ListActive(ctx context.Context) ([]Player, error)
	GetByLicence(ctx context.Context, licence string) (Player, bool, error)
	UpdateByLicence(ctx context.Context, licence string, mutate func(*Player) error) (Player, bool, error)
}
