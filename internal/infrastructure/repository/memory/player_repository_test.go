package memory

import (
	"context"
	"testing"

	"github.com/riskibarqy/smartping-sync/internal/domain/player"
)

func TestPlayerRepository_UpdateByLicenceKeepsIdentity(t *testing.T) {
	t.Parallel()

	repo := NewPlayerRepository([]player.Player{{ID: "p-1", Licence: "1234567", LastName: "DOE", Points: 1500, Active: true}})
	got, found, err := repo.UpdateByLicence(context.Background(), "1234567", func(p *player.Player) error {
		p.ID = "hijack"
		p.Points = 1523
		return nil
	})
	if err != nil || !found {
		t.Fatalf("expected update, found=%v err=%v", found, err)
	}
	if got.ID != "p-1" || got.Points != 1523 {
		t.Fatalf("unexpected updated player: %+v", got)
	}

	_, found, err = repo.UpdateByLicence(context.Background(), "7654321", nil)
	if err != nil || found {
		t.Fatalf("expected miss for unknown licence, found=%v err=%v", found, err)
	}
}

func TestPlayerRepository_ListActiveSkipsInactive(t *testing.T) {
	t.Parallel()

	repo := NewPlayerRepository([]player.Player{
		{ID: "p-1", Licence: "1", LastName: "B", Active: true},
		{ID: "p-2", Licence: "2", LastName: "A", Active: true},
		{ID: "p-3", Licence: "3", LastName: "C", Active: false},
	})
	rows, err := repo.ListActive(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 || rows[0].Licence != "2" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}
