package storage

import (
	"context"
	"testing"
)

func TestLedgerReplaceForObligation(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	repo := NewLedgerRepo(db)
	ctx := context.Background()

	txs := []TransactionRecord{
		{ID: "t2", AmountValue: "400.00", PostedOn: "2024-01-20", Description: "", RawText: " LOAN   PMT 2 "},
		{ID: "t1", AmountValue: "600.00", PostedOn: "2024-01-02", Description: "Loan payment", Metadata: map[string]string{"source": "bank"}},
	}
	bills := []BillRecord{
		{ID: "b1", AmountValue: "1000.00", TotalAmountValue: strPtr("4500.00"), DueOn: "2024-01-15", Status: "Past Due"},
	}
	if err := repo.ReplaceForObligation(ctx, "loan-1", txs, bills, fetchedAt); err != nil {
		t.Fatalf("ReplaceForObligation() unexpected error: %v", err)
	}
	if err := repo.ReplaceForObligation(ctx, "gym", []TransactionRecord{{ID: "g1", AmountValue: "25", PostedOn: "2024-01-05", Description: "Gym"}}, nil, fetchedAt); err != nil {
		t.Fatalf("ReplaceForObligation() unexpected error: %v", err)
	}

	got, err := repo.Transactions(ctx, "loan-1")
	if err != nil {
		t.Fatalf("Transactions() unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Transactions() returned %d rows, want 2", len(got))
	}
	if got[0].ID != "t1" || got[1].ID != "t2" {
		t.Fatalf("Transactions() order = [%s %s], want [t1 t2]", got[0].ID, got[1].ID)
	}
	if got[0].Amount.String() != "600" {
		t.Fatalf("Amount = %s, want 600", got[0].Amount)
	}
	if got[0].Metadata["source"] != "bank" || got[0].Metadata["description"] != "Loan payment" {
		t.Fatalf("Metadata = %v, want source and description", got[0].Metadata)
	}
	if got[1].Metadata["description"] != "LOAN PMT 2" {
		t.Fatalf("description = %q, want raw text fallback %q", got[1].Metadata["description"], "LOAN PMT 2")
	}

	gotBills, err := repo.Bills(ctx, "loan-1")
	if err != nil {
		t.Fatalf("Bills() unexpected error: %v", err)
	}
	if len(gotBills) != 1 {
		t.Fatalf("Bills() returned %d rows, want 1", len(gotBills))
	}
	if gotBills[0].Status != "overdue" {
		t.Fatalf("bill status = %q, want %q", gotBills[0].Status, "overdue")
	}
	if gotBills[0].TotalAmount == nil || gotBills[0].TotalAmount.String() != "4500" {
		t.Fatalf("bill total = %v, want 4500", gotBills[0].TotalAmount)
	}

	// Refetching the loan without t2 and bills leaves the gym ledger alone.
	if err := repo.ReplaceForObligation(ctx, "loan-1", txs[1:], nil, fetchedAt); err != nil {
		t.Fatalf("ReplaceForObligation() unexpected error: %v", err)
	}
	got, err = repo.Transactions(ctx, "loan-1")
	if err != nil {
		t.Fatalf("Transactions() unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "t1" {
		t.Fatalf("Transactions() after refetch = %v, want only t1", got)
	}
	gotBills, err = repo.Bills(ctx, "loan-1")
	if err != nil {
		t.Fatalf("Bills() unexpected error: %v", err)
	}
	if len(gotBills) != 0 {
		t.Fatalf("Bills() after refetch returned %d rows, want 0", len(gotBills))
	}
	gym, err := repo.Transactions(ctx, "gym")
	if err != nil {
		t.Fatalf("Transactions(gym) unexpected error: %v", err)
	}
	if len(gym) != 1 {
		t.Fatalf("Transactions(gym) returned %d rows, want 1", len(gym))
	}

	has, err := repo.HasAny(ctx)
	if err != nil || !has {
		t.Fatalf("HasAny() = (%t, %v), want (true, nil)", has, err)
	}
}
