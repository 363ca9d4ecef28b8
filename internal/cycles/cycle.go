package cycles

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cycle is one period of an obligation. It is derived on demand and never
// persisted.
type Cycle struct {
	Number    int
	Kind      Kind
	StartDate time.Time
	EndDate   time.Time
	// ScheduledDate is the generator's due date. ExpectedDate starts equal to
	// it and only differs when an override moves the due date.
	ScheduledDate time.Time
	ExpectedDate  time.Time

	ExpectedAmount decimal.Decimal
	MinimumAmount  *decimal.Decimal
	Principal      *decimal.Decimal
	Interest       *decimal.Decimal
	Override       *Override
	// StaleMinimum is an override minimum above the current generated amount.
	// MinimumAmount is clamped to the amount when it is set.
	StaleMinimum *decimal.Decimal

	ToleranceDays          int
	AllowsMultiplePayments bool

	// MatchStart and MatchEnd bound the dates attributed to this cycle.
	MatchStart time.Time
	MatchEnd   time.Time

	Transactions []AttributedTransaction
	Bills        []AttributedBill
	ActualAmount decimal.Decimal
	ActualDate   *time.Time
	BilledAmount decimal.Decimal
	PaymentCount int

	Status      Status
	AmountShort decimal.Decimal
	AmountOver  decimal.Decimal
	DaysLate    int
	DaysEarly   int
}

// Contains reports whether day falls inside the cycle's window.
func (c Cycle) Contains(day time.Time) bool {
	d := Day(day)
	return !d.Before(c.StartDate) && !d.After(c.EndDate)
}

// Overridden reports whether a user correction applies to this cycle.
func (c Cycle) Overridden() bool {
	return c.Override != nil
}

func (c *Cycle) apply(cl Classification) {
	c.Status = cl.Status
	c.AmountShort = cl.AmountShort
	c.AmountOver = cl.AmountOver
	c.DaysLate = cl.DaysLate
	c.DaysEarly = cl.DaysEarly
}

func cloneCycles(in []Cycle) []Cycle {
	out := make([]Cycle, len(in))
	copy(out, in)
	return out
}
