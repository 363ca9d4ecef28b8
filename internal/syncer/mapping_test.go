package syncer

import (
	"errors"
	"testing"

	"github.com/lachiem1/giddycycles/internal/cycles"
	"github.com/lachiem1/giddycycles/internal/remote"
)

func TestMapObligation(t *testing.T) {
	res := remote.Resource{
		Type: "obligations",
		ID:   "loan-1",
		Attributes: map[string]any{
			"name":                   "Car loan",
			"kind":                   "LOAN",
			"startDate":              "2024-01-01",
			"endDate":                nil,
			"frequency":              "Fortnightly",
			"interval":               float64(1),
			"amount":                 map[string]any{"currencyCode": "AUD", "value": "450.00", "valueInBaseUnits": float64(45000)},
			"minimumAmount":          "300",
			"toleranceDays":          float64(2),
			"allowsMultiplePayments": true,
			"principal":              map[string]any{"value": "10000.00"},
			"annualRate":             6.5,
			"termCycles":             float64(52),
			"dueOffsetDays":          float64(3),
		},
	}

	rec, err := mapObligation(res)
	if err != nil {
		t.Fatalf("mapObligation() unexpected error: %v", err)
	}
	if rec.Kind != string(cycles.KindLiability) {
		t.Fatalf("Kind = %q, want %q", rec.Kind, cycles.KindLiability)
	}
	if rec.Frequency != string(cycles.Biweekly) {
		t.Fatalf("Frequency = %q, want %q", rec.Frequency, cycles.Biweekly)
	}
	if rec.AmountValue != "450" {
		t.Fatalf("AmountValue = %q, want %q", rec.AmountValue, "450")
	}
	if rec.MinimumValue == nil || *rec.MinimumValue != "300" {
		t.Fatalf("MinimumValue = %v, want 300", rec.MinimumValue)
	}
	if rec.ToleranceDays == nil || *rec.ToleranceDays != 2 {
		t.Fatalf("ToleranceDays = %v, want 2", rec.ToleranceDays)
	}
	if !rec.AllowsMultiplePayments {
		t.Fatal("AllowsMultiplePayments = false, want true")
	}
	if rec.PrincipalValue == nil || *rec.PrincipalValue != "10000" {
		t.Fatalf("PrincipalValue = %v, want 10000", rec.PrincipalValue)
	}
	if rec.AnnualRate == nil || *rec.AnnualRate != "6.5" {
		t.Fatalf("AnnualRate = %v, want 6.5", rec.AnnualRate)
	}
	if rec.TermCycles != 52 || rec.DueOffsetDays != 3 {
		t.Fatalf("TermCycles/DueOffsetDays = %d/%d, want 52/3", rec.TermCycles, rec.DueOffsetDays)
	}
	if rec.EndDate != nil {
		t.Fatalf("EndDate = %v, want nil", rec.EndDate)
	}

	if _, err := rec.ToObligation(); err != nil {
		t.Fatalf("ToObligation() unexpected error: %v", err)
	}
}

func TestMapObligationRejectsBadInput(t *testing.T) {
	base := func() map[string]any {
		return map[string]any{
			"name":      "Rent",
			"kind":      "recurring",
			"startDate": "2024-01-01",
			"frequency": "monthly",
			"amount":    "2000",
		}
	}

	tests := []struct {
		name    string
		mutate  func(map[string]any)
		wantErr error
	}{
		{name: "unknown frequency", mutate: func(a map[string]any) { a["frequency"] = "hourly" }, wantErr: cycles.ErrInvalidRecurrence},
		{name: "bad start date", mutate: func(a map[string]any) { a["startDate"] = "01/01/2024" }, wantErr: cycles.ErrInvalidStartDate},
		{name: "unknown kind", mutate: func(a map[string]any) { a["kind"] = "mortgage" }},
		{name: "missing name", mutate: func(a map[string]any) { delete(a, "name") }},
		{name: "bad amount", mutate: func(a map[string]any) { a["amount"] = "lots" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := base()
			tt.mutate(attrs)
			_, err := mapObligation(remote.Resource{ID: "rent", Attributes: attrs})
			if err == nil {
				t.Fatal("mapObligation() error = nil, want non-nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("mapObligation() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMapTransactionPrefersSettledDate(t *testing.T) {
	res := remote.Resource{
		ID: "tx-1",
		Attributes: map[string]any{
			"amount":      map[string]any{"value": "-1000.00"},
			"createdAt":   "2024-01-30T22:15:00+11:00",
			"settledAt":   "2024-02-01T09:00:00+11:00",
			"description": "Car loan",
			"status":      "SETTLED",
		},
		Relationships: map[string]map[string]any{
			"account": {"data": map[string]any{"type": "accounts", "id": "acc-1"}},
		},
	}

	rec, err := mapTransaction("loan-1", cycles.KindLiability, res)
	if err != nil {
		t.Fatalf("mapTransaction() unexpected error: %v", err)
	}
	if rec.PostedOn != "2024-02-01" {
		t.Fatalf("PostedOn = %q, want %q", rec.PostedOn, "2024-02-01")
	}
	if rec.AmountValue != "1000" {
		t.Fatalf("AmountValue = %q, want %q", rec.AmountValue, "1000")
	}
	if rec.Metadata["account_id"] != "acc-1" || rec.Metadata["status"] != "SETTLED" {
		t.Fatalf("Metadata = %v, want account_id and status", rec.Metadata)
	}

	delete(res.Attributes, "settledAt")
	rec, err = mapTransaction("loan-1", cycles.KindLiability, res)
	if err != nil {
		t.Fatalf("mapTransaction() unexpected error: %v", err)
	}
	if rec.PostedOn != "2024-01-30" {
		t.Fatalf("PostedOn = %q, want createdAt day %q", rec.PostedOn, "2024-01-30")
	}
}

func TestMapTransactionSkipsFlowsAgainstThePayment(t *testing.T) {
	tx := func(amount string) remote.Resource {
		return remote.Resource{
			ID: "tx-1",
			Attributes: map[string]any{
				"amount":    map[string]any{"value": amount},
				"createdAt": "2024-01-30T22:15:00+11:00",
			},
		}
	}

	tests := []struct {
		name    string
		kind    cycles.Kind
		amount  string
		want    string
		skipped bool
	}{
		{name: "loan repayment", kind: cycles.KindLiability, amount: "-450.10", want: "450.1"},
		{name: "loan refund", kind: cycles.KindLiability, amount: "450.10", skipped: true},
		{name: "budget spend", kind: cycles.KindBudget, amount: "-60", want: "60"},
		{name: "goal deposit", kind: cycles.KindGoal, amount: "200.00", want: "200"},
		{name: "goal withdrawal", kind: cycles.KindGoal, amount: "-200.00", skipped: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := mapTransaction("ob-1", tt.kind, tx(tt.amount))
			if tt.skipped {
				if !errors.Is(err, errNotPayment) {
					t.Fatalf("mapTransaction() error = %v, want errNotPayment", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("mapTransaction() unexpected error: %v", err)
			}
			if rec.AmountValue != tt.want {
				t.Fatalf("AmountValue = %q, want %q", rec.AmountValue, tt.want)
			}
		})
	}
}

func TestMapBill(t *testing.T) {
	rec, err := mapBill("card", remote.Resource{
		ID: "bill-1",
		Attributes: map[string]any{
			"amount":      "35.00",
			"totalAmount": map[string]any{"value": "1250.40"},
			"dueDate":     "2024-03-15",
			"status":      "open",
		},
	})
	if err != nil {
		t.Fatalf("mapBill() unexpected error: %v", err)
	}
	if rec.AmountValue != "35" || rec.DueOn != "2024-03-15" || rec.Status != "open" {
		t.Fatalf("mapBill() = %+v, unexpected values", rec)
	}
	if rec.TotalAmountValue == nil || *rec.TotalAmountValue != "1250.4" {
		t.Fatalf("TotalAmountValue = %v, want 1250.4", rec.TotalAmountValue)
	}

	if _, err := mapBill("card", remote.Resource{ID: "bill-2", Attributes: map[string]any{"amount": "1"}}); err == nil {
		t.Fatal("mapBill() without dueDate error = nil, want non-nil")
	}
}
