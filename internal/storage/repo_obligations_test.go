package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/lachiem1/giddycycles/internal/cycles"
)

func sampleObligations() []ObligationRecord {
	return []ObligationRecord{
		{
			ID:             "loan-1",
			Name:           "  Car   loan ",
			Kind:           string(cycles.KindLiability),
			StartDate:      "2024-01-01",
			Frequency:      "monthly",
			Interval:       1,
			AmountValue:    "0",
			MinimumValue:   strPtr("50.00"),
			PrincipalValue: strPtr("1200.00"),
			AnnualRate:     strPtr("12"),
			TermCycles:     12,
			DueOffsetDays:  14,
		},
		{
			ID:            "gym",
			Name:          "Gym",
			Kind:          string(cycles.KindRecurring),
			StartDate:     "2024-01-05",
			Frequency:     "fortnightly",
			AmountValue:   "25.50",
			ToleranceDays: intPtr(1),
		},
		{
			ID:          "holiday",
			Name:        "Holiday fund",
			Kind:        string(cycles.KindGoal),
			StartDate:   "2024-01-01",
			EndDate:     strPtr("2024-12-31"),
			Frequency:   "monthly",
			AmountValue: "200",
			TargetValue: strPtr("2400"),
		},
	}
}

func TestObligationsReplaceSnapshotAndList(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	repo := NewObligationsRepo(db)
	ctx := context.Background()

	has, err := repo.HasActiveObligations(ctx)
	if err != nil || has {
		t.Fatalf("HasActiveObligations() = (%t, %v), want (false, nil)", has, err)
	}

	if err := repo.ReplaceSnapshot(ctx, sampleObligations(), fetchedAt); err != nil {
		t.Fatalf("ReplaceSnapshot() unexpected error: %v", err)
	}

	got, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List() returned %d obligations, want 3", len(got))
	}
	if got[0].ID != "loan-1" || got[1].ID != "gym" || got[2].ID != "holiday" {
		t.Fatalf("List() order = [%s %s %s], want backend order", got[0].ID, got[1].ID, got[2].ID)
	}
	if got[0].Name != "Car loan" {
		t.Fatalf("Name = %q, want whitespace collapsed %q", got[0].Name, "Car loan")
	}
	if got[1].ToleranceDays == nil || *got[1].ToleranceDays != 1 {
		t.Fatalf("ToleranceDays = %v, want 1", got[1].ToleranceDays)
	}
	if got[2].EndDate == nil || *got[2].EndDate != "2024-12-31" {
		t.Fatalf("EndDate = %v, want 2024-12-31", got[2].EndDate)
	}

	// A later fetch without the gym membership deactivates it.
	if err := repo.ReplaceSnapshot(ctx, []ObligationRecord{sampleObligations()[0], sampleObligations()[2]}, fetchedAt); err != nil {
		t.Fatalf("ReplaceSnapshot() unexpected error: %v", err)
	}
	if _, ok, err := repo.Get(ctx, "gym"); err != nil || ok {
		t.Fatalf("Get(gym) = (_, %t, %v), want (_, false, nil)", ok, err)
	}
	rec, ok, err := repo.Get(ctx, "holiday")
	if err != nil || !ok {
		t.Fatalf("Get(holiday) = (_, %t, %v), want (_, true, nil)", ok, err)
	}
	if rec.DisplayOrder != 1 {
		t.Fatalf("DisplayOrder = %d, want 1", rec.DisplayOrder)
	}
}

func TestObligationRecordToObligation(t *testing.T) {
	t.Parallel()

	recs := sampleObligations()

	loan, err := recs[0].ToObligation()
	if err != nil {
		t.Fatalf("ToObligation(loan) unexpected error: %v", err)
	}
	terms, ok := loan.Terms.(cycles.LiabilityTerms)
	if !ok {
		t.Fatalf("loan terms = %T, want cycles.LiabilityTerms", loan.Terms)
	}
	if terms.TermCycles != 12 || terms.DueOffsetDays != 14 || terms.Principal.String() != "1200" {
		t.Fatalf("loan terms = %+v, unexpected values", terms)
	}
	if loan.MinimumAmount == nil || loan.MinimumAmount.String() != "50" {
		t.Fatalf("loan minimum = %v, want 50", loan.MinimumAmount)
	}

	gym, err := recs[1].ToObligation()
	if err != nil {
		t.Fatalf("ToObligation(gym) unexpected error: %v", err)
	}
	if gym.Recurrence.Frequency != cycles.Biweekly || gym.Recurrence.Interval != 1 {
		t.Fatalf("gym recurrence = %+v, want biweekly x1", gym.Recurrence)
	}
	if gym.Kind() != cycles.KindRecurring {
		t.Fatalf("gym kind = %q, want %q", gym.Kind(), cycles.KindRecurring)
	}

	goal, err := recs[2].ToObligation()
	if err != nil {
		t.Fatalf("ToObligation(goal) unexpected error: %v", err)
	}
	if goal.Terms.(cycles.GoalTerms).Target.String() != "2400" {
		t.Fatalf("goal target = %v, want 2400", goal.Terms.(cycles.GoalTerms).Target)
	}

	bad := recs[1]
	bad.Frequency = "hourly"
	if _, err := bad.ToObligation(); !errors.Is(err, cycles.ErrInvalidRecurrence) {
		t.Fatalf("ToObligation() error = %v, want ErrInvalidRecurrence", err)
	}

	bad = recs[1]
	bad.Kind = "mortgage"
	if _, err := bad.ToObligation(); err == nil {
		t.Fatal("ToObligation() error = nil, want unknown kind error")
	}

	bad = recs[1]
	bad.AmountValue = "lots"
	if _, err := bad.ToObligation(); err == nil {
		t.Fatal("ToObligation() error = nil, want amount parse error")
	}
}
