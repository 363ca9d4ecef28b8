package cycles

import (
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindLiability Kind = "liability"
	KindBudget    Kind = "budget"
	KindGoal      Kind = "goal"
	KindRecurring Kind = "recurring_transaction"
)

// Default tolerance windows in days, per kind.
const (
	LiabilityToleranceDays = 3
	RecurringToleranceDays = 2
	GoalToleranceDays      = 5
	BudgetToleranceDays    = 0
)

// Installment is the computed target for one cycle. Principal and Interest are
// only set for amortized liabilities.
type Installment struct {
	Amount    decimal.Decimal
	Principal *decimal.Decimal
	Interest  *decimal.Decimal
}

// Terms is the per-kind part of an obligation: how much is expected each cycle
// and which day of the window the cycle is due.
type Terms interface {
	Kind() Kind
	DefaultToleranceDays() int
	// DueDate picks the expected date inside the window [start, end].
	DueDate(start, end time.Time) time.Time
	// Installments returns the targets for cycles 1..count.
	Installments(rec Recurrence, count int) []Installment
	// LastCycle caps the schedule; 0 means open-ended.
	LastCycle() int
}

// Obligation is anything tracked cycle by cycle.
type Obligation struct {
	ID        string
	Name      string
	StartDate string
	// EndDate optionally stops the schedule (loan maturity, goal target date).
	EndDate    string
	Recurrence Recurrence
	Terms      Terms

	MinimumAmount          *decimal.Decimal
	ToleranceDays          *int
	AllowsMultiplePayments bool
	Overrides              map[int]Override
}

func (o Obligation) Kind() Kind {
	if o.Terms == nil {
		return ""
	}
	return o.Terms.Kind()
}

// Tolerance returns the configured tolerance or the kind default.
func (o Obligation) Tolerance() int {
	if o.ToleranceDays != nil {
		return max(0, *o.ToleranceDays)
	}
	if o.Terms == nil {
		return 0
	}
	return o.Terms.DefaultToleranceDays()
}

// LiabilityTerms covers loans, cards and other debts. A liability with
// Principal and TermCycles set is amortized; otherwise PeriodicPayment is due
// every cycle.
type LiabilityTerms struct {
	PeriodicPayment decimal.Decimal
	Principal       decimal.Decimal
	// AnnualRate is a percentage, 6.5 means 6.5% a year.
	AnnualRate    decimal.Decimal
	TermCycles    int
	DueOffsetDays int
}

func (LiabilityTerms) Kind() Kind                { return KindLiability }
func (LiabilityTerms) DefaultToleranceDays() int { return LiabilityToleranceDays }

func (t LiabilityTerms) DueDate(start, end time.Time) time.Time {
	due := addDays(start, max(0, t.DueOffsetDays))
	if due.After(end) {
		return end
	}
	return due
}

func (t LiabilityTerms) LastCycle() int {
	if t.amortized() {
		return t.TermCycles
	}
	return 0
}

func (t LiabilityTerms) amortized() bool {
	return t.Principal.IsPositive() && t.TermCycles > 0
}

func (t LiabilityTerms) Installments(rec Recurrence, count int) []Installment {
	if !t.amortized() {
		return repeatInstallment(t.PeriodicPayment, count)
	}
	return amortize(t.Principal, t.periodRate(rec), t.TermCycles, t.PeriodicPayment, count)
}

func (t LiabilityTerms) periodRate(rec Recurrence) decimal.Decimal {
	if !t.AnnualRate.IsPositive() {
		return decimal.Zero
	}
	return t.AnnualRate.Div(decimal.NewFromInt(100)).Div(rec.PeriodsPerYear())
}

// BudgetTerms is a spending limit per cycle, assessed at the end of the window.
type BudgetTerms struct {
	Amount decimal.Decimal
}

func (BudgetTerms) Kind() Kind                         { return KindBudget }
func (BudgetTerms) DefaultToleranceDays() int          { return BudgetToleranceDays }
func (BudgetTerms) DueDate(_, end time.Time) time.Time { return end }
func (BudgetTerms) LastCycle() int                     { return 0 }
func (t BudgetTerms) Installments(_ Recurrence, n int) []Installment {
	return repeatInstallment(t.Amount, n)
}

// GoalTerms is a savings contribution made by the end of each window.
type GoalTerms struct {
	Contribution decimal.Decimal
	Target       decimal.Decimal
}

func (GoalTerms) Kind() Kind                         { return KindGoal }
func (GoalTerms) DefaultToleranceDays() int          { return GoalToleranceDays }
func (GoalTerms) DueDate(_, end time.Time) time.Time { return end }
func (GoalTerms) LastCycle() int                     { return 0 }
func (t GoalTerms) Installments(_ Recurrence, n int) []Installment {
	return repeatInstallment(t.Contribution, n)
}

// RecurringTerms is a fixed amount expected on the first day of each window.
type RecurringTerms struct {
	Amount decimal.Decimal
}

func (RecurringTerms) Kind() Kind                           { return KindRecurring }
func (RecurringTerms) DefaultToleranceDays() int            { return RecurringToleranceDays }
func (RecurringTerms) DueDate(start, _ time.Time) time.Time { return start }
func (RecurringTerms) LastCycle() int                       { return 0 }
func (t RecurringTerms) Installments(_ Recurrence, n int) []Installment {
	return repeatInstallment(t.Amount, n)
}

func repeatInstallment(amount decimal.Decimal, count int) []Installment {
	out := make([]Installment, count)
	for i := range out {
		out[i] = Installment{Amount: amount}
	}
	return out
}
