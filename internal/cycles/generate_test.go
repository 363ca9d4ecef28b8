package cycles

import (
	"errors"
	"testing"
)

func TestGenerateCyclesStopsAfterFirstUpcomingCycle(t *testing.T) {
	cs, err := GenerateCycles(loanObligation(), mustDate(t, "2024-02-10"), 0)
	if err != nil {
		t.Fatalf("GenerateCycles() unexpected error: %v", err)
	}
	want := [][2]string{
		{"2024-01-01", "2024-01-31"},
		{"2024-02-01", "2024-02-29"},
		{"2024-03-01", "2024-03-31"},
	}
	if len(cs) != len(want) {
		t.Fatalf("len(cycles) = %d, want %d", len(cs), len(want))
	}
	for i, w := range want {
		if cs[i].Number != i+1 {
			t.Fatalf("cycles[%d].Number = %d, want %d", i, cs[i].Number, i+1)
		}
		if FormatDate(cs[i].StartDate) != w[0] || FormatDate(cs[i].EndDate) != w[1] {
			t.Fatalf(
				"cycle %d = %s..%s, want %s..%s",
				i+1,
				FormatDate(cs[i].StartDate),
				FormatDate(cs[i].EndDate),
				w[0],
				w[1],
			)
		}
		if cs[i].Status != StatusUpcoming {
			t.Fatalf("cycles[%d].Status = %q, want %q", i, cs[i].Status, StatusUpcoming)
		}
		assertDecimal(t, "ExpectedAmount", cs[i].ExpectedAmount, "1000")
		if cs[i].ToleranceDays != LiabilityToleranceDays {
			t.Fatalf("ToleranceDays = %d, want %d", cs[i].ToleranceDays, LiabilityToleranceDays)
		}
	}
}

func TestGenerateCyclesClampsEndOfMonth(t *testing.T) {
	o := loanObligation()
	o.StartDate = "2024-01-31"
	cs, err := GenerateCycles(o, mustDate(t, "2024-05-01"), 0)
	if err != nil {
		t.Fatalf("GenerateCycles() unexpected error: %v", err)
	}
	starts := []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30", "2024-05-31"}
	if len(cs) != len(starts) {
		t.Fatalf("len(cycles) = %d, want %d", len(cs), len(starts))
	}
	for i, want := range starts {
		if got := FormatDate(cs[i].StartDate); got != want {
			t.Fatalf("cycles[%d].StartDate = %s, want %s", i, got, want)
		}
	}
	if got := FormatDate(cs[0].EndDate); got != "2024-02-28" {
		t.Fatalf("cycles[0].EndDate = %s, want 2024-02-28", got)
	}
}

func TestGenerateCyclesWindowsAreContiguous(t *testing.T) {
	recs := []Recurrence{
		{Frequency: Daily, Interval: 3},
		{Frequency: Weekly, Interval: 1},
		{Frequency: Biweekly, Interval: 1},
		{Frequency: Monthly, Interval: 1},
		{Frequency: Bimonthly, Interval: 1},
		{Frequency: Quarterly, Interval: 2},
		{Frequency: Semiannual, Interval: 1},
		{Frequency: Annual, Interval: 1},
	}
	for _, rec := range recs {
		o := loanObligation()
		o.StartDate = "2023-08-31"
		o.Recurrence = rec
		cs, err := GenerateCycles(o, mustDate(t, "2026-01-15"), 50)
		if err != nil {
			t.Fatalf("GenerateCycles(%s) unexpected error: %v", rec, err)
		}
		for i := range cs {
			if cs[i].EndDate.Before(cs[i].StartDate) {
				t.Fatalf("%s cycle %d ends before it starts", rec, cs[i].Number)
			}
			if i == 0 {
				continue
			}
			if !addDays(cs[i-1].EndDate, 1).Equal(cs[i].StartDate) {
				t.Fatalf(
					"%s cycle %d ends %s but cycle %d starts %s",
					rec,
					cs[i-1].Number,
					FormatDate(cs[i-1].EndDate),
					cs[i].Number,
					FormatDate(cs[i].StartDate),
				)
			}
		}
	}
}

func TestGenerateCyclesHonorsLimits(t *testing.T) {
	weekly := loanObligation()
	weekly.Recurrence = Recurrence{Frequency: Weekly, Interval: 1}
	cs, err := GenerateCycles(weekly, mustDate(t, "2025-01-01"), 4)
	if err != nil {
		t.Fatalf("GenerateCycles() unexpected error: %v", err)
	}
	if len(cs) != 4 {
		t.Fatalf("len(cycles) with max 4 = %d, want 4", len(cs))
	}

	daily := loanObligation()
	daily.StartDate = "2020-01-01"
	daily.Recurrence = Recurrence{Frequency: Daily, Interval: 1}
	cs, err = GenerateCycles(daily, mustDate(t, "2026-01-01"), 0)
	if err != nil {
		t.Fatalf("GenerateCycles() unexpected error: %v", err)
	}
	if len(cs) != DefaultMaxCycles {
		t.Fatalf("len(cycles) with default cap = %d, want %d", len(cs), DefaultMaxCycles)
	}

	ending := loanObligation()
	ending.EndDate = "2024-03-15"
	cs, err = GenerateCycles(ending, mustDate(t, "2025-01-01"), 0)
	if err != nil {
		t.Fatalf("GenerateCycles() unexpected error: %v", err)
	}
	if len(cs) != 3 {
		t.Fatalf("len(cycles) with end date = %d, want 3", len(cs))
	}
}

func TestGenerateCyclesDueDatesPerKind(t *testing.T) {
	tests := []struct {
		name  string
		terms Terms
		want  string
	}{
		{name: "liability", terms: LiabilityTerms{PeriodicPayment: dec("10")}, want: "2024-01-01"},
		{name: "liability offset", terms: LiabilityTerms{PeriodicPayment: dec("10"), DueOffsetDays: 14}, want: "2024-01-15"},
		{name: "liability offset clamped", terms: LiabilityTerms{PeriodicPayment: dec("10"), DueOffsetDays: 40}, want: "2024-01-31"},
		{name: "budget", terms: BudgetTerms{Amount: dec("10")}, want: "2024-01-31"},
		{name: "goal", terms: GoalTerms{Contribution: dec("10")}, want: "2024-01-31"},
		{name: "recurring", terms: RecurringTerms{Amount: dec("10")}, want: "2024-01-01"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := loanObligation()
			o.Terms = tc.terms
			cs, err := GenerateCycles(o, mustDate(t, "2024-01-10"), 0)
			if err != nil {
				t.Fatalf("GenerateCycles() unexpected error: %v", err)
			}
			if got := FormatDate(cs[0].ExpectedDate); got != tc.want {
				t.Fatalf("ExpectedDate = %s, want %s", got, tc.want)
			}
			if !cs[0].ExpectedDate.Equal(cs[0].ScheduledDate) {
				t.Fatal("ExpectedDate differs from ScheduledDate without an override")
			}
		})
	}
}

func TestGenerateCyclesAmortizedLiabilityStopsAtTerm(t *testing.T) {
	o := loanObligation()
	o.Terms = LiabilityTerms{Principal: dec("1200"), TermCycles: 12}
	cs, err := GenerateCycles(o, mustDate(t, "2030-01-01"), 0)
	if err != nil {
		t.Fatalf("GenerateCycles() unexpected error: %v", err)
	}
	if len(cs) != 12 {
		t.Fatalf("len(cycles) = %d, want 12", len(cs))
	}
	for _, c := range cs {
		assertDecimal(t, "ExpectedAmount", c.ExpectedAmount, "100")
		if c.Principal == nil || c.Interest == nil {
			t.Fatalf("cycle %d missing principal/interest split", c.Number)
		}
	}
}

func TestGenerateCyclesErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Obligation)
		want   error
	}{
		{name: "zero interval", mutate: func(o *Obligation) { o.Recurrence.Interval = 0 }, want: ErrInvalidRecurrence},
		{name: "unknown frequency", mutate: func(o *Obligation) { o.Recurrence.Frequency = "hourly" }, want: ErrInvalidRecurrence},
		{name: "bad start", mutate: func(o *Obligation) { o.StartDate = "not-a-date" }, want: ErrInvalidStartDate},
		{name: "empty start", mutate: func(o *Obligation) { o.StartDate = "" }, want: ErrInvalidStartDate},
		{name: "bad end", mutate: func(o *Obligation) { o.EndDate = "soon" }, want: ErrInvalidEndDate},
		{name: "end before start", mutate: func(o *Obligation) { o.EndDate = "2023-12-01" }, want: ErrInvalidEndDate},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := loanObligation()
			tc.mutate(&o)
			_, err := GenerateCycles(o, mustDate(t, "2024-02-10"), 0)
			if !errors.Is(err, tc.want) {
				t.Fatalf("GenerateCycles() error = %v, want %v", err, tc.want)
			}
		})
	}
}
