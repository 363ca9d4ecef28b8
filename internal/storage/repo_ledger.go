package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lachiem1/giddycycles/internal/cycles"
)

// TransactionRecord is a payment linked to an obligation.
type TransactionRecord struct {
	ID           string
	ObligationID string
	AmountValue  string
	PostedOn     string
	Description  string
	RawText      string
	Metadata     map[string]string
}

// BillRecord is a statement or invoice linked to an obligation.
type BillRecord struct {
	ID               string
	ObligationID     string
	AmountValue      string
	TotalAmountValue *string
	DueOn            string
	Status           string
}

// LedgerRepo stores the transactions and bills of each obligation.
type LedgerRepo struct {
	db *sql.DB
}

func NewLedgerRepo(db *sql.DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

func (r *LedgerRepo) HasAny(ctx context.Context) (bool, error) {
	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM ledger_transactions WHERE is_active = 1 LIMIT 1)`).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active ledger transactions: %w", err)
	}
	return exists == 1, nil
}

// ReplaceForObligation stores the full ledger fetched for one obligation.
// Rows of the obligation missing from the fetch are deactivated; other
// obligations are untouched.
func (r *LedgerRepo) ReplaceForObligation(
	ctx context.Context,
	obligationID string,
	transactions []TransactionRecord,
	bills []BillRecord,
	fetchedAt time.Time,
) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	fetchedValue := fetchedAt.UTC().Format(time.RFC3339Nano)
	const upsertTransaction = `
INSERT INTO ledger_transactions (
	id,
	obligation_id,
	amount_value,
	posted_on,
	description,
	metadata_json,
	last_fetched_at,
	is_active
) VALUES (?, ?, ?, ?, ?, ?, ?, 1)
ON CONFLICT(id) DO UPDATE SET
	obligation_id = excluded.obligation_id,
	amount_value = excluded.amount_value,
	posted_on = excluded.posted_on,
	description = excluded.description,
	metadata_json = excluded.metadata_json,
	last_fetched_at = excluded.last_fetched_at,
	is_active = 1
`
	txIDs := make([]string, 0, len(transactions))
	for _, t := range transactions {
		meta := t.Metadata
		if meta == nil {
			meta = map[string]string{}
		}
		var metaJSON []byte
		metaJSON, err = json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("encode metadata for transaction %q: %w", t.ID, err)
		}
		if _, err = tx.ExecContext(
			ctx,
			upsertTransaction,
			t.ID,
			obligationID,
			t.AmountValue,
			t.PostedOn,
			normalizeDescription(t.Description, t.RawText),
			string(metaJSON),
			fetchedValue,
		); err != nil {
			return fmt.Errorf("upsert ledger transaction %q: %w", t.ID, err)
		}
		txIDs = append(txIDs, t.ID)
	}
	if err = deactivateMissing(ctx, tx, "ledger_transactions", txIDs, "obligation_id", obligationID); err != nil {
		return err
	}

	const upsertBill = `
INSERT INTO bills (
	id,
	obligation_id,
	amount_value,
	total_amount_value,
	due_on,
	status,
	last_fetched_at,
	is_active
) VALUES (?, ?, ?, ?, ?, ?, ?, 1)
ON CONFLICT(id) DO UPDATE SET
	obligation_id = excluded.obligation_id,
	amount_value = excluded.amount_value,
	total_amount_value = excluded.total_amount_value,
	due_on = excluded.due_on,
	status = excluded.status,
	last_fetched_at = excluded.last_fetched_at,
	is_active = 1
`
	billIDs := make([]string, 0, len(bills))
	for _, b := range bills {
		if _, err = tx.ExecContext(
			ctx,
			upsertBill,
			b.ID,
			obligationID,
			b.AmountValue,
			ptrString(b.TotalAmountValue),
			b.DueOn,
			normalizeBillStatus(b.Status),
			fetchedValue,
		); err != nil {
			return fmt.Errorf("upsert bill %q: %w", b.ID, err)
		}
		billIDs = append(billIDs, b.ID)
	}
	if err = deactivateMissing(ctx, tx, "bills", billIDs, "obligation_id", obligationID); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger transaction: %w", err)
	}
	return nil
}

// Transactions returns the active payments of one obligation, oldest first.
func (r *LedgerRepo) Transactions(ctx context.Context, obligationID string) ([]cycles.Transaction, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, amount_value, posted_on, description, metadata_json
		 FROM ledger_transactions
		 WHERE obligation_id = ? AND is_active = 1
		 ORDER BY posted_on ASC, id ASC`,
		obligationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query ledger transactions for %q: %w", obligationID, err)
	}
	defer rows.Close()

	var out []cycles.Transaction
	for rows.Next() {
		var (
			id, amountValue, postedOn, description, metaJSON string
		)
		if err := rows.Scan(&id, &amountValue, &postedOn, &description, &metaJSON); err != nil {
			return nil, fmt.Errorf("scan ledger transaction: %w", err)
		}
		amount, err := parseDecimal(amountValue)
		if err != nil {
			return nil, fmt.Errorf("ledger transaction %q amount: %w", id, err)
		}
		meta := map[string]string{}
		if metaJSON != "" {
			if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
				return nil, fmt.Errorf("decode metadata for transaction %q: %w", id, err)
			}
		}
		if description != "" {
			meta["description"] = description
		}
		out = append(out, cycles.Transaction{
			ID:       id,
			Amount:   amount,
			Date:     postedOn,
			Metadata: meta,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger transactions: %w", err)
	}
	return out, nil
}

// Bills returns the active bills of one obligation ordered by due date.
func (r *LedgerRepo) Bills(ctx context.Context, obligationID string) ([]cycles.Bill, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, amount_value, total_amount_value, due_on, status
		 FROM bills
		 WHERE obligation_id = ? AND is_active = 1
		 ORDER BY due_on ASC, id ASC`,
		obligationID,
	)
	if err != nil {
		return nil, fmt.Errorf("query bills for %q: %w", obligationID, err)
	}
	defer rows.Close()

	var out []cycles.Bill
	for rows.Next() {
		var (
			id, amountValue, dueOn, status string
			total                          sql.NullString
		)
		if err := rows.Scan(&id, &amountValue, &total, &dueOn, &status); err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		amount, err := parseDecimal(amountValue)
		if err != nil {
			return nil, fmt.Errorf("bill %q amount: %w", id, err)
		}
		totalAmount, err := parseOptionalDecimal(nullStringPtr(total))
		if err != nil {
			return nil, fmt.Errorf("bill %q total: %w", id, err)
		}
		out = append(out, cycles.Bill{
			ID:          id,
			Amount:      amount,
			TotalAmount: totalAmount,
			DueDate:     dueOn,
			Status:      status,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bills: %w", err)
	}
	return out, nil
}
