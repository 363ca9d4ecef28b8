package cycles

import (
	"strings"
	"testing"
)

func TestComputeScenarios(t *testing.T) {
	tests := []struct {
		name      string
		txs       []Transaction
		asOf      string
		status    Status
		short     string
		over      string
		daysLate  int
		daysEarly int
	}{
		{
			name:     "full payment inside tolerance",
			txs:      []Transaction{{ID: "t1", Amount: dec("1000"), Date: "2024-02-02"}},
			asOf:     "2024-02-10",
			status:   StatusPaidOnTime,
			short:    "0",
			over:     "0",
			daysLate: 1,
		},
		{
			name:     "partial above minimum",
			txs:      []Transaction{{ID: "t1", Amount: dec("850"), Date: "2024-02-05"}},
			asOf:     "2024-02-10",
			status:   StatusPartial,
			short:    "150",
			over:     "0",
			daysLate: 4,
		},
		{
			name:     "nothing paid after due",
			asOf:     "2024-02-10",
			status:   StatusNotPaid,
			short:    "1000",
			over:     "0",
			daysLate: 9,
		},
		{
			name:      "early overpayment across the boundary",
			txs:       []Transaction{{ID: "t1", Amount: dec("1200"), Date: "2024-01-30"}},
			asOf:      "2024-02-10",
			status:    StatusPaidEarly,
			short:     "0",
			over:      "200",
			daysEarly: 2,
		},
		{
			name:   "below minimum",
			txs:    []Transaction{{ID: "t1", Amount: dec("500"), Date: "2024-02-01"}},
			asOf:   "2024-02-10",
			status: StatusUnderpaid,
			short:  "500",
			over:   "0",
		},
		{
			name:     "full payment past tolerance",
			txs:      []Transaction{{ID: "t1", Amount: dec("1000"), Date: "2024-02-06"}},
			asOf:     "2024-02-10",
			status:   StatusPaidLate,
			short:    "0",
			over:     "0",
			daysLate: 5,
		},
		{
			name:   "overpaid on the due date",
			txs:    []Transaction{{ID: "t1", Amount: dec("1100"), Date: "2024-02-01"}},
			asOf:   "2024-02-10",
			status: StatusOverpaid,
			short:  "0",
			over:   "100",
		},
		{
			name: "split payments",
			txs: []Transaction{
				{ID: "t1", Amount: dec("600"), Date: "2024-02-01"},
				{ID: "t2", Amount: dec("400"), Date: "2024-02-03"},
			},
			asOf:     "2024-02-10",
			status:   StatusPaidOnTime,
			short:    "0",
			over:     "0",
			daysLate: 2,
		},
		{
			name:   "half a cent short still counts as paid",
			txs:    []Transaction{{ID: "t1", Amount: dec("999.995"), Date: "2024-02-01"}},
			asOf:   "2024-02-10",
			status: StatusPaidOnTime,
			short:  "0",
			over:   "0",
		},
		{
			name:   "a full cent short is partial",
			txs:    []Transaction{{ID: "t1", Amount: dec("999.99"), Date: "2024-02-01"}},
			asOf:   "2024-02-10",
			status: StatusPartial,
			short:  "0.01",
			over:   "0",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cs, err := Compute(loanObligation(), tc.txs, nil, Options{AsOf: mustDate(t, tc.asOf)})
			if err != nil {
				t.Fatalf("Compute() unexpected error: %v", err)
			}
			feb := cycleByNumber(t, cs, 2)
			if feb.Status != tc.status {
				t.Fatalf("Status = %q, want %q", feb.Status, tc.status)
			}
			assertDecimal(t, "AmountShort", feb.AmountShort, tc.short)
			assertDecimal(t, "AmountOver", feb.AmountOver, tc.over)
			if feb.DaysLate != tc.daysLate {
				t.Fatalf("DaysLate = %d, want %d", feb.DaysLate, tc.daysLate)
			}
			if feb.DaysEarly != tc.daysEarly {
				t.Fatalf("DaysEarly = %d, want %d", feb.DaysEarly, tc.daysEarly)
			}
		})
	}
}

func TestClassifyUpcomingBeforeDue(t *testing.T) {
	c := Cycle{
		ExpectedDate:   mustDate(t, "2024-03-01"),
		EndDate:        mustDate(t, "2024-03-31"),
		ExpectedAmount: dec("1000"),
		ToleranceDays:  3,
	}
	got := Classify(c, mustDate(t, "2024-02-29"))
	if got.Status != StatusUpcoming {
		t.Fatalf("Classify() status = %q, want %q", got.Status, StatusUpcoming)
	}
	got = Classify(c, mustDate(t, "2024-03-01"))
	if got.Status != StatusNotPaid || got.DaysLate != 0 {
		t.Fatalf("Classify() on due date = (%q, %d), want (%q, 0)", got.Status, got.DaysLate, StatusNotPaid)
	}
}

func TestClassifyPaidWithinWindowAfterCycleEnds(t *testing.T) {
	o := loanObligation()
	o.Terms = GoalTerms{Contribution: dec("200")}
	o.MinimumAmount = nil
	cs, err := Compute(o, []Transaction{{ID: "g1", Amount: dec("200"), Date: "2024-02-03"}}, nil, Options{
		AsOf: mustDate(t, "2024-02-10"),
	})
	if err != nil {
		t.Fatalf("Compute() unexpected error: %v", err)
	}
	jan := cycleByNumber(t, cs, 1)
	if jan.Status != StatusPaidWithinWindow {
		t.Fatalf("Status = %q, want %q", jan.Status, StatusPaidWithinWindow)
	}
	if jan.DaysLate != 3 {
		t.Fatalf("DaysLate = %d, want 3", jan.DaysLate)
	}
	// Days are counted from the due date, not from the end of the grace period.
	if got := StatusMessage(jan).Subtitle; !strings.HasPrefix(got, "Paid 3 days after due") {
		t.Fatalf("Subtitle = %q, want days counted from the due date", got)
	}
}

func TestClassifyWithoutMinimumIsUnderpaid(t *testing.T) {
	c := Cycle{
		ExpectedDate:   mustDate(t, "2024-02-01"),
		EndDate:        mustDate(t, "2024-02-29"),
		ExpectedAmount: dec("1000"),
		ActualAmount:   dec("999"),
		ToleranceDays:  3,
	}
	got := Classify(c, mustDate(t, "2024-02-10"))
	if got.Status != StatusUnderpaid {
		t.Fatalf("Classify() status = %q, want %q", got.Status, StatusUnderpaid)
	}
	assertDecimal(t, "AmountShort", got.AmountShort, "1")
}

func TestClassifyMonotonicInPayments(t *testing.T) {
	rank := map[Status]int{
		StatusNotPaid:   0,
		StatusUnderpaid: 1,
		StatusPartial:   2,
	}
	payments := []Transaction{
		{ID: "1", Amount: dec("300"), Date: "2024-02-01"},
		{ID: "2", Amount: dec("300"), Date: "2024-02-01"},
		{ID: "3", Amount: dec("300"), Date: "2024-02-01"},
		{ID: "4", Amount: dec("300"), Date: "2024-02-01"},
	}
	prev := -1
	for n := 0; n <= len(payments); n++ {
		cs, err := Compute(loanObligation(), payments[:n], nil, Options{AsOf: mustDate(t, "2024-02-10")})
		if err != nil {
			t.Fatalf("Compute() unexpected error: %v", err)
		}
		feb := cycleByNumber(t, cs, 2)
		r, ok := rank[feb.Status]
		if !ok {
			if !feb.Status.Settled() {
				t.Fatalf("%d payments: status = %q", n, feb.Status)
			}
			r = 3
		}
		if r < prev {
			t.Fatalf("%d payments: status %q ranks below the previous one", n, feb.Status)
		}
		prev = r
	}
}

func TestStatusPredicates(t *testing.T) {
	if len(Statuses()) != 9 {
		t.Fatalf("len(Statuses()) = %d, want 9", len(Statuses()))
	}
	if !StatusOverpaid.Settled() || StatusPartial.Settled() {
		t.Fatal("Settled() misclassifies overpaid or partial")
	}
	if !StatusUnderpaid.Missed() || StatusUpcoming.Missed() {
		t.Fatal("Missed() misclassifies underpaid or upcoming")
	}
}
