package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/riskibarqy/smartping-sync/internal/domain/team"
)

func TestTeamRepository_UpsertInsertsThenUpdates(t *testing.T) {
	t.Parallel()

	repo := NewTeamRepository(nil)
	ctx := context.Background()

	created, inserted, err := repo.UpsertByName(ctx, "ASPTT 1", func(item *team.Team) error {
		if item.ID == "" {
			item.ID = "t-1"
		}
		item.PoolLabel = "A"
		return nil
	})
	if err != nil || !inserted {
		t.Fatalf("expected insert, inserted=%v err=%v", inserted, err)
	}
	if !created.Active || created.UpdatedAt.IsZero() {
		t.Fatalf("expected active timestamped team: %+v", created)
	}

	updated, inserted, err := repo.UpsertByName(ctx, "ASPTT 1", func(item *team.Team) error {
		item.Rank = 2
		return nil
	})
	if err != nil || inserted {
		t.Fatalf("expected update, inserted=%v err=%v", inserted, err)
	}
	if updated.ID != "t-1" || updated.PoolLabel != "A" || updated.Rank != 2 {
		t.Fatalf("unexpected merged team: %+v", updated)
	}
}

func TestTeamRepository_UpdateByNameNeverInserts(t *testing.T) {
	t.Parallel()

	repo := NewTeamRepository(nil)
	_, found, err := repo.UpdateByName(context.Background(), "ASPTT 9", func(item *team.Team) error {
		item.ID = "x"
		return nil
	})
	if err != nil || found {
		t.Fatalf("expected miss without insert, found=%v err=%v", found, err)
	}
	if rows, _ := repo.ListActive(context.Background()); len(rows) != 0 {
		t.Fatalf("expected empty store, got %+v", rows)
	}
}

func TestTeamRepository_MutateErrorLeavesRecordUntouched(t *testing.T) {
	t.Parallel()

	repo := NewTeamRepository([]team.Team{{ID: "t-1", Name: "ASPTT 1", PoolLabel: "A", DivisionLabel: "D1", Active: true}})
	boom := errors.New("boom")
	_, _, err := repo.UpdateByName(context.Background(), "ASPTT 1", func(item *team.Team) error {
		item.PoolLabel = ""
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected mutate error, got %v", err)
	}
	got, _, _ := repo.GetByName(context.Background(), "ASPTT 1")
	if got.PoolLabel != "A" || got.DivisionLabel != "D1" {
		t.Fatalf("record changed after failed mutate: %+v", got)
	}
}

func TestTeamRepository_ConcurrentUpdatesAreSerialized(t *testing.T) {
	t.Parallel()

	repo := NewTeamRepository([]team.Team{{ID: "t-1", Name: "ASPTT 1", Active: true}})
	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, _, _ = repo.UpdateByName(context.Background(), "ASPTT 1", func(item *team.Team) error {
				item.Played++
				return nil
			})
		}()
	}
	wg.Wait()

	got, _, _ := repo.GetByName(context.Background(), "ASPTT 1")
	if got.Played != workers {
		t.Fatalf("lost updates: played=%d want=%d", got.Played, workers)
	}
}

func TestSeedTeams(t *testing.T) {
	t.Parallel()

	teams := SeedTeams("ASPTT", 3)
	if len(teams) != 3 || teams[2].Name != "ASPTT 3" || !teams[0].Active {
		t.Fatalf("unexpected seed: %+v", teams)
	}
}
