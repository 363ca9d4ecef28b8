package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lachiem1/giddycycles/internal/cycles"
)

var ErrNotFound = errors.New("not found")

// Snapshot is everything the cycle engine needs for one obligation.
type Snapshot struct {
	Record       ObligationRecord
	Obligation   cycles.Obligation
	Transactions []cycles.Transaction
	Bills        []cycles.Bill
}

// LoadSnapshot reads one obligation with its overrides, transactions and
// bills. A per-kind tolerance preference applies when the obligation has none.
func LoadSnapshot(ctx context.Context, db *sql.DB, obligationID string) (Snapshot, error) {
	rec, ok, err := NewObligationsRepo(db).Get(ctx, obligationID)
	if err != nil {
		return Snapshot{}, err
	}
	if !ok {
		return Snapshot{}, fmt.Errorf("obligation %q: %w", obligationID, ErrNotFound)
	}

	o, err := rec.ToObligation()
	if err != nil {
		return Snapshot{}, err
	}
	if o.Overrides, err = NewOverridesRepo(db).ListByObligation(ctx, rec.ID); err != nil {
		return Snapshot{}, err
	}
	if o.ToleranceDays == nil {
		days, ok, err := NewAppConfigRepo(db).ToleranceDays(ctx, o.Kind())
		if err != nil {
			return Snapshot{}, err
		}
		if ok {
			o.ToleranceDays = &days
		}
	}

	ledger := NewLedgerRepo(db)
	txs, err := ledger.Transactions(ctx, rec.ID)
	if err != nil {
		return Snapshot{}, err
	}
	bills, err := ledger.Bills(ctx, rec.ID)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		Record:       rec,
		Obligation:   o,
		Transactions: txs,
		Bills:        bills,
	}, nil
}

// Compute runs the cycle engine over the snapshot.
func (s Snapshot) Compute(opts cycles.Options) ([]cycles.Cycle, error) {
	return cycles.Compute(s.Obligation, s.Transactions, s.Bills, opts)
}

// SaveOverride stores ov for one cycle after checking it against the cycle's
// current amount and that the engine still computes the obligation with it in
// place.
func SaveOverride(ctx context.Context, db *sql.DB, obligationID string, cycleNumber int, ov cycles.Override, opts cycles.Options) error {
	snap, err := LoadSnapshot(ctx, db, obligationID)
	if err != nil {
		return err
	}

	others := make(map[int]cycles.Override, len(snap.Obligation.Overrides))
	for n, existing := range snap.Obligation.Overrides {
		if n != cycleNumber {
			others[n] = existing
		}
	}
	opts.Overrides = others
	current, err := snap.Compute(opts)
	if err != nil {
		return err
	}
	computed := decimal.Zero
	if ov.Minimum != nil {
		computed = *ov.Minimum
	}
	for _, c := range current {
		if c.Number == cycleNumber {
			computed = c.ExpectedAmount
			break
		}
	}
	if err := cycles.ValidateOverride(cycleNumber, ov, computed); err != nil {
		return err
	}

	merged := make(map[int]cycles.Override, len(others)+1)
	for n, existing := range others {
		merged[n] = existing
	}
	merged[cycleNumber] = ov
	opts.Overrides = merged
	if _, err := snap.Compute(opts); err != nil {
		return err
	}
	_, err = NewOverridesRepo(db).Upsert(ctx, obligationID, cycleNumber, ov)
	return err
}
