package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lachiem1/giddycycles/internal/cycles"
)

// ObligationRecord is the cached row for one obligation. Money columns hold
// decimal strings exactly as the backend sent them.
type ObligationRecord struct {
	ID                     string
	Name                   string
	Kind                   string
	StartDate              string
	EndDate                *string
	Frequency              string
	Interval               int
	AmountValue            string
	MinimumValue           *string
	ToleranceDays          *int
	AllowsMultiplePayments bool
	PrincipalValue         *string
	AnnualRate             *string
	TermCycles             int
	DueOffsetDays          int
	TargetValue            *string
	DisplayOrder           int
}

// ToObligation converts the row into the engine's obligation type.
func (r ObligationRecord) ToObligation() (cycles.Obligation, error) {
	freq, ok := cycles.ParseFrequency(r.Frequency)
	if !ok {
		return cycles.Obligation{}, fmt.Errorf("obligation %q: %w: unknown frequency %q", r.ID, cycles.ErrInvalidRecurrence, r.Frequency)
	}
	interval := r.Interval
	if interval == 0 {
		interval = 1
	}

	amount, err := parseDecimal(r.AmountValue)
	if err != nil {
		return cycles.Obligation{}, fmt.Errorf("obligation %q amount: %w", r.ID, err)
	}

	o := cycles.Obligation{
		ID:                     r.ID,
		Name:                   r.Name,
		StartDate:              r.StartDate,
		EndDate:                ptrStringValue(r.EndDate),
		Recurrence:             cycles.Recurrence{Frequency: freq, Interval: interval},
		ToleranceDays:          r.ToleranceDays,
		AllowsMultiplePayments: r.AllowsMultiplePayments,
	}
	if o.MinimumAmount, err = parseOptionalDecimal(r.MinimumValue); err != nil {
		return cycles.Obligation{}, fmt.Errorf("obligation %q minimum: %w", r.ID, err)
	}

	switch cycles.Kind(r.Kind) {
	case cycles.KindLiability:
		terms := cycles.LiabilityTerms{
			PeriodicPayment: amount,
			TermCycles:      r.TermCycles,
			DueOffsetDays:   r.DueOffsetDays,
		}
		if p, err := parseOptionalDecimal(r.PrincipalValue); err != nil {
			return cycles.Obligation{}, fmt.Errorf("obligation %q principal: %w", r.ID, err)
		} else if p != nil {
			terms.Principal = *p
		}
		if rate, err := parseOptionalDecimal(r.AnnualRate); err != nil {
			return cycles.Obligation{}, fmt.Errorf("obligation %q rate: %w", r.ID, err)
		} else if rate != nil {
			terms.AnnualRate = *rate
		}
		o.Terms = terms
	case cycles.KindBudget:
		o.Terms = cycles.BudgetTerms{Amount: amount}
	case cycles.KindGoal:
		terms := cycles.GoalTerms{Contribution: amount}
		if t, err := parseOptionalDecimal(r.TargetValue); err != nil {
			return cycles.Obligation{}, fmt.Errorf("obligation %q target: %w", r.ID, err)
		} else if t != nil {
			terms.Target = *t
		}
		o.Terms = terms
	case cycles.KindRecurring:
		o.Terms = cycles.RecurringTerms{Amount: amount}
	default:
		return cycles.Obligation{}, fmt.Errorf("obligation %q: unknown kind %q", r.ID, r.Kind)
	}
	return o, nil
}

type ObligationsRepo struct {
	db *sql.DB
}

func NewObligationsRepo(db *sql.DB) *ObligationsRepo {
	return &ObligationsRepo{db: db}
}

func (r *ObligationsRepo) HasActiveObligations(ctx context.Context) (bool, error) {
	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM obligations WHERE is_active = 1 LIMIT 1)`).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active obligations: %w", err)
	}
	return exists == 1, nil
}

// ReplaceSnapshot upserts the fetched obligations and deactivates any the
// backend no longer returns. Display order follows the backend order.
func (r *ObligationsRepo) ReplaceSnapshot(ctx context.Context, obligations []ObligationRecord, fetchedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin obligations snapshot transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	fetchedValue := fetchedAt.UTC().Format(time.RFC3339Nano)
	const upsert = `
INSERT INTO obligations (
	id,
	name,
	kind,
	start_date,
	end_date,
	frequency,
	frequency_interval,
	amount_value,
	minimum_value,
	tolerance_days,
	allows_multiple_payments,
	principal_value,
	annual_rate,
	term_cycles,
	due_offset_days,
	target_value,
	display_order,
	last_fetched_at,
	is_active
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	kind = excluded.kind,
	start_date = excluded.start_date,
	end_date = excluded.end_date,
	frequency = excluded.frequency,
	frequency_interval = excluded.frequency_interval,
	amount_value = excluded.amount_value,
	minimum_value = excluded.minimum_value,
	tolerance_days = excluded.tolerance_days,
	allows_multiple_payments = excluded.allows_multiple_payments,
	principal_value = excluded.principal_value,
	annual_rate = excluded.annual_rate,
	term_cycles = excluded.term_cycles,
	due_offset_days = excluded.due_offset_days,
	target_value = excluded.target_value,
	display_order = excluded.display_order,
	last_fetched_at = excluded.last_fetched_at,
	is_active = 1
`
	for i, o := range obligations {
		if _, err = tx.ExecContext(
			ctx,
			upsert,
			o.ID,
			normalizeText(o.Name),
			o.Kind,
			o.StartDate,
			ptrString(o.EndDate),
			o.Frequency,
			max(1, o.Interval),
			o.AmountValue,
			ptrString(o.MinimumValue),
			ptrInt(o.ToleranceDays),
			boolToInt(o.AllowsMultiplePayments),
			ptrString(o.PrincipalValue),
			ptrString(o.AnnualRate),
			o.TermCycles,
			o.DueOffsetDays,
			ptrString(o.TargetValue),
			i,
			fetchedValue,
		); err != nil {
			return fmt.Errorf("upsert obligation %q: %w", o.ID, err)
		}
	}

	if err = deactivateMissing(ctx, tx, "obligations", obligationIDs(obligations), "", nil); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit obligations snapshot transaction: %w", err)
	}
	return nil
}

const selectObligationColumns = `
SELECT
	id,
	name,
	kind,
	start_date,
	end_date,
	frequency,
	frequency_interval,
	amount_value,
	minimum_value,
	tolerance_days,
	allows_multiple_payments,
	principal_value,
	annual_rate,
	term_cycles,
	due_offset_days,
	target_value,
	display_order
FROM obligations
`

// List returns active obligations in display order.
func (r *ObligationsRepo) List(ctx context.Context) ([]ObligationRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectObligationColumns+`WHERE is_active = 1 ORDER BY display_order ASC, name COLLATE NOCASE ASC`)
	if err != nil {
		return nil, fmt.Errorf("query obligations: %w", err)
	}
	defer rows.Close()

	var out []ObligationRecord
	for rows.Next() {
		rec, err := scanObligation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate obligations: %w", err)
	}
	return out, nil
}

// Get returns one active obligation.
func (r *ObligationsRepo) Get(ctx context.Context, id string) (ObligationRecord, bool, error) {
	row := r.db.QueryRowContext(ctx, selectObligationColumns+`WHERE id = ? AND is_active = 1`, strings.TrimSpace(id))
	rec, err := scanObligation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return ObligationRecord{}, false, nil
		}
		return ObligationRecord{}, false, err
	}
	return rec, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObligation(row rowScanner) (ObligationRecord, error) {
	var (
		rec       ObligationRecord
		endDate   sql.NullString
		minimum   sql.NullString
		tolerance sql.NullInt64
		multiple  int
		principal sql.NullString
		rate      sql.NullString
		target    sql.NullString
	)
	if err := row.Scan(
		&rec.ID,
		&rec.Name,
		&rec.Kind,
		&rec.StartDate,
		&endDate,
		&rec.Frequency,
		&rec.Interval,
		&rec.AmountValue,
		&minimum,
		&tolerance,
		&multiple,
		&principal,
		&rate,
		&rec.TermCycles,
		&rec.DueOffsetDays,
		&target,
		&rec.DisplayOrder,
	); err != nil {
		if err == sql.ErrNoRows {
			return ObligationRecord{}, err
		}
		return ObligationRecord{}, fmt.Errorf("scan obligation: %w", err)
	}
	rec.EndDate = nullStringPtr(endDate)
	rec.MinimumValue = nullStringPtr(minimum)
	rec.PrincipalValue = nullStringPtr(principal)
	rec.AnnualRate = nullStringPtr(rate)
	rec.TargetValue = nullStringPtr(target)
	rec.AllowsMultiplePayments = multiple == 1
	if tolerance.Valid {
		v := int(tolerance.Int64)
		rec.ToleranceDays = &v
	}
	return rec, nil
}

func obligationIDs(obligations []ObligationRecord) []string {
	ids := make([]string, len(obligations))
	for i, o := range obligations {
		ids[i] = o.ID
	}
	return ids
}

func parseDecimal(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse decimal %q: %w", raw, err)
	}
	return d, nil
}

func parseOptionalDecimal(raw *string) (*decimal.Decimal, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	d, err := parseDecimal(*raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
