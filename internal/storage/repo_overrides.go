package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lachiem1/giddycycles/internal/cycles"
)

// OverridesRepo stores user corrections per obligation cycle. Overrides are
// local only and survive syncs.
type OverridesRepo struct {
	db *sql.DB
}

func NewOverridesRepo(db *sql.DB) *OverridesRepo {
	return &OverridesRepo{db: db}
}

// Upsert saves the override for one cycle and returns its id. Replacing an
// existing override keeps the id.
func (r *OverridesRepo) Upsert(ctx context.Context, obligationID string, cycleNumber int, ov cycles.Override) (string, error) {
	if cycleNumber <= 0 {
		return "", fmt.Errorf("%w: cycle number must be positive, got %d", cycles.ErrInvalidOverride, cycleNumber)
	}
	if ov.Amount != nil && ov.Amount.IsNegative() {
		return "", fmt.Errorf("%w: amount cannot be negative", cycles.ErrInvalidOverride)
	}

	var expectedOn any
	if ov.Date != "" {
		day, err := cycles.ParseDate(ov.Date)
		if err != nil {
			return "", fmt.Errorf("%w: %v", cycles.ErrInvalidOverride, err)
		}
		expectedOn = cycles.FormatDate(day)
	}

	const q = `
INSERT INTO cycle_overrides (
	id,
	obligation_id,
	cycle_number,
	amount_value,
	minimum_value,
	expected_on,
	notes,
	updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(obligation_id, cycle_number) DO UPDATE SET
	amount_value = excluded.amount_value,
	minimum_value = excluded.minimum_value,
	expected_on = excluded.expected_on,
	notes = excluded.notes,
	updated_at = excluded.updated_at
`
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin override upsert transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(
		ctx,
		q,
		uuid.NewString(),
		obligationID,
		cycleNumber,
		ptrDecimal(ov.Amount),
		ptrDecimal(ov.Minimum),
		expectedOn,
		normalizeText(ov.Notes),
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return "", fmt.Errorf("upsert override %s#%d: %w", obligationID, cycleNumber, err)
	}

	var id string
	if err = tx.QueryRowContext(
		ctx,
		`SELECT id FROM cycle_overrides WHERE obligation_id = ? AND cycle_number = ?`,
		obligationID,
		cycleNumber,
	).Scan(&id); err != nil {
		return "", fmt.Errorf("read override id %s#%d: %w", obligationID, cycleNumber, err)
	}
	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("commit override upsert transaction: %w", err)
	}
	return id, nil
}

// Delete removes the override for one cycle and reports whether one existed.
func (r *OverridesRepo) Delete(ctx context.Context, obligationID string, cycleNumber int) (bool, error) {
	res, err := r.db.ExecContext(
		ctx,
		`DELETE FROM cycle_overrides WHERE obligation_id = ? AND cycle_number = ?`,
		obligationID,
		cycleNumber,
	)
	if err != nil {
		return false, fmt.Errorf("delete override %s#%d: %w", obligationID, cycleNumber, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete override %s#%d: %w", obligationID, cycleNumber, err)
	}
	return n > 0, nil
}

// ListByObligation returns the overrides of one obligation keyed by cycle
// number.
func (r *OverridesRepo) ListByObligation(ctx context.Context, obligationID string) (map[int]cycles.Override, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT cycle_number, amount_value, minimum_value, expected_on, notes
		 FROM cycle_overrides
		 WHERE obligation_id = ?
		 ORDER BY cycle_number ASC`,
		obligationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query overrides for %q: %w", obligationID, err)
	}
	defer rows.Close()

	out := map[int]cycles.Override{}
	for rows.Next() {
		var (
			number     int
			amount     sql.NullString
			minimum    sql.NullString
			expectedOn sql.NullString
			notes      string
		)
		if err := rows.Scan(&number, &amount, &minimum, &expectedOn, &notes); err != nil {
			return nil, fmt.Errorf("scan override: %w", err)
		}
		ov := cycles.Override{Date: expectedOn.String, Notes: notes}
		if ov.Amount, err = parseOptionalDecimal(nullStringPtr(amount)); err != nil {
			return nil, fmt.Errorf("override %s#%d amount: %w", obligationID, number, err)
		}
		if ov.Minimum, err = parseOptionalDecimal(nullStringPtr(minimum)); err != nil {
			return nil, fmt.Errorf("override %s#%d minimum: %w", obligationID, number, err)
		}
		out[number] = ov
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate overrides: %w", err)
	}
	return out, nil
}
