package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/smartping-sync/internal/domain/player"
	qb "github.com/riskibarqy/smartping-sync/internal/platform/querybuilder"
)

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) ListActive(ctx context.Context) ([]player.Player, error) {
	query, args, err := qb.Select(playerSelectColumns...).From(playerTable).
		Where(
			qb.Eq("active", true),
			qb.IsNull("deleted_at"),
		).
		OrderBy("last_name", "licence").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select active players query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select active players: %w", err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *PlayerRepository) GetByLicence(ctx context.Context, licence string) (player.Player, bool, error) {
	return r.getByLicence(ctx, r.db, licence, false)
}

func (r *PlayerRepository) UpdateByLicence(ctx context.Context, licence string, mutate func(*player.Player) error) (player.Player, bool, error) {
	licence = strings.TrimSpace(licence)

	var (
		out   player.Player
		found bool
	)
	err := withTx(ctx, r.db, "player update", func(tx *sqlx.Tx) error {
		current, ok, err := r.getByLicence(ctx, tx, licence, true)
		if err != nil || !ok {
			return err
		}

		next := current
		if mutate != nil {
			if err := mutate(&next); err != nil {
				return err
			}
		}
		next.ID = current.ID
		next.Licence = current.Licence
		if err := next.Validate(); err != nil {
			return fmt.Errorf("validate player: %w", err)
		}

		builder, err := qb.UpdateModel(playerTable, playerToTableModel(next))
		if err != nil {
			return fmt.Errorf("build update player query: %w", err)
		}
		query, args, err := builder.
			SetRaw("updated_at", "NOW()").
			Where(qb.Eq("public_id", next.ID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build update player query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("update player licence=%s: %w", licence, err)
		}

		out, found = next, true
		return nil
	})
	if err != nil {
		return player.Player{}, false, err
	}
	return out, found, nil
}

func (r *PlayerRepository) getByLicence(ctx context.Context, q sqlx.QueryerContext, licence string, lock bool) (player.Player, bool, error) {
	builder := qb.Select(playerSelectColumns...).From(playerTable).
		Where(
			qb.Eq("licence", strings.TrimSpace(licence)),
			qb.IsNull("deleted_at"),
		).
		Limit(1)
	if lock {
		builder = builder.ForUpdate()
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build select player query: %w", err)
	}

	var row playerTableModel
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("select player licence=%s: %w", licence, err)
	}
	return row.toDomain(), true, nil
}
