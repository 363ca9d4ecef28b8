package reminder

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/lachiem1/giddycycles/internal/storage"
)

func TestStoreSourceSkipsInvalidObligations(t *testing.T) {
	ctx := context.Background()
	db, err := storage.Open(ctx, storage.Config{Mode: storage.ModePlain, Path: filepath.Join(t.TempDir(), "r.db")})
	if err != nil {
		t.Fatalf("storage.Open() unexpected error: %v", err)
	}
	defer db.Close()

	records := []storage.ObligationRecord{
		{ID: "rent", Name: "Rent", Kind: "recurring_transaction", StartDate: "2024-01-01", Frequency: "monthly", AmountValue: "2000"},
		{ID: "broken", Name: "Broken", Kind: "budget", StartDate: "2024-01-01", Frequency: "hourly", AmountValue: "10"},
	}
	if err := storage.NewObligationsRepo(db).ReplaceSnapshot(ctx, records, testAsOf); err != nil {
		t.Fatalf("ReplaceSnapshot() unexpected error: %v", err)
	}

	got, err := NewStoreSource(db, 0, quietLogger()).CyclesAsOf(ctx, testAsOf)
	if err != nil {
		t.Fatalf("CyclesAsOf() unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "rent" {
		t.Fatalf("CyclesAsOf() = %+v, want only rent", got)
	}
	if len(got[0].Cycles) != 4 {
		t.Fatalf("rent cycles = %d, want 4", len(got[0].Cycles))
	}
}
