package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/smartping-sync/internal/domain/team"
	qb "github.com/riskibarqy/smartping-sync/internal/platform/querybuilder"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) ListActive(ctx context.Context) ([]team.Team, error) {
	query, args, err := qb.Select(teamColumns...).From(teamTable).
		Where(
			qb.Eq("active", true),
			qb.IsNull("deleted_at"),
		).
		OrderBy("name").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select active teams query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select active teams: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	return r.getOne(ctx, r.db, qb.Eq("public_id", strings.TrimSpace(teamID)), false)
}

func (r *TeamRepository) GetByName(ctx context.Context, name string) (team.Team, bool, error) {
	return r.getOne(ctx, r.db, qb.Eq("name", strings.TrimSpace(name)), false)
}

func (r *TeamRepository) UpdateByName(ctx context.Context, name string, mutate func(*team.Team) error) (team.Team, bool, error) {
	name = strings.TrimSpace(name)

	var (
		out   team.Team
		found bool
	)
	err := withTx(ctx, r.db, "team update", func(tx *sqlx.Tx) error {
		current, ok, err := r.getOne(ctx, tx, qb.Eq("name", name), true)
		if err != nil || !ok {
			return err
		}
		next, err := applyTeamMutation(current, mutate)
		if err != nil {
			return err
		}
		if err := r.update(ctx, tx, next); err != nil {
			return err
		}
		out, found = next, true
		return nil
	})
	if err != nil {
		return team.Team{}, false, err
	}
	return out, found, nil
}

func (r *TeamRepository) UpsertByName(ctx context.Context, name string, mutate func(*team.Team) error) (team.Team, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return team.Team{}, false, fmt.Errorf("team name is required")
	}

	var (
		out     team.Team
		created bool
	)
	err := withTx(ctx, r.db, "team upsert", func(tx *sqlx.Tx) error {
		current, ok, err := r.getOne(ctx, tx, qb.Eq("name", name), true)
		if err != nil {
			return err
		}
		if !ok {
			fresh, err := applyTeamMutation(team.Team{Name: name, Active: true}, mutate)
			if err != nil {
				return err
			}
			inserted, err := r.insert(ctx, tx, fresh)
			if err != nil {
				return err
			}
			if inserted {
				out, created = fresh, true
				return nil
			}
			// A concurrent sync inserted the same name first; merge onto its row.
			current, ok, err = r.getOne(ctx, tx, qb.Eq("name", name), true)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("team %q vanished during upsert", name)
			}
		}

		next, err := applyTeamMutation(current, mutate)
		if err != nil {
			return err
		}
		if err := r.update(ctx, tx, next); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return team.Team{}, false, err
	}
	return out, created, nil
}

func (r *TeamRepository) getOne(ctx context.Context, q sqlx.QueryerContext, cond qb.Condition, lock bool) (team.Team, bool, error) {
	builder := qb.Select(teamColumns...).From(teamTable).
		Where(cond, qb.IsNull("deleted_at")).
		Limit(1)
	if lock {
		builder = builder.ForUpdate()
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build select team query: %w", err)
	}

	var row teamTableModel
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("select team: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *TeamRepository) insert(ctx context.Context, tx *sqlx.Tx, item team.Team) (bool, error) {
	query, args, err := qb.InsertModel(teamTable, teamToWriteModel(item), "ON CONFLICT (name) DO NOTHING RETURNING public_id")
	if err != nil {
		return false, fmt.Errorf("build insert team query: %w", err)
	}

	var publicID string
	if err := tx.GetContext(ctx, &publicID, query, args...); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert team name=%s: %w", item.Name, err)
	}
	return true, nil
}

func (r *TeamRepository) update(ctx context.Context, tx *sqlx.Tx, item team.Team) error {
	query, args, err := teamUpdateSQL(teamToWriteModel(item))
	if err != nil {
		return fmt.Errorf("build update team query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update team name=%s: %w", item.Name, err)
	}
	return nil
}

func teamUpdateSQL(model teamWriteModel) (string, []any, error) {
	builder, err := qb.UpdateModel(teamTable, model)
	if err != nil {
		return "", nil, err
	}
	return builder.
		SetRaw("updated_at", "NOW()").
		Where(qb.Eq("public_id", model.PublicID)).
		ToSQL()
}

func applyTeamMutation(current team.Team, mutate func(*team.Team) error) (team.Team, error) {
	next := current
	if mutate != nil {
		if err := mutate(&next); err != nil {
			return team.Team{}, err
		}
	}
	next.Name = current.Name
	if current.ID != "" {
		next.ID = current.ID
	}
	next.UpdatedAt = time.Now().UTC()
	if err := next.Validate(); err != nil {
		return team.Team{}, fmt.Errorf("validate team: %w", err)
	}
	return next, nil
}
