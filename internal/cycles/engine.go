package cycles

import (
	"time"

	"github.com/shopspring/decimal"
)

// Options controls a Compute call. AsOf is required; the engine never reads
// the clock.
type Options struct {
	AsOf      time.Time
	MaxCycles int
	// Overrides replaces the obligation's own override map when non-nil.
	Overrides map[int]Override
}

// Compute runs the full pipeline for one obligation: generate windows, apply
// overrides, attribute history and classify each cycle. The same inputs
// always produce the same cycles.
func Compute(o Obligation, transactions []Transaction, bills []Bill, opts Options) ([]Cycle, error) {
	generated, err := GenerateCycles(o, opts.AsOf, opts.MaxCycles)
	if err != nil {
		return nil, err
	}
	overrides := o.Overrides
	if opts.Overrides != nil {
		overrides = opts.Overrides
	}
	patched, err := ApplyOverrides(generated, overrides)
	if err != nil {
		return nil, err
	}
	attributed := Attribute(patched, transactions, bills, o.Tolerance())
	for i := range attributed {
		attributed[i].apply(Classify(attributed[i], opts.AsOf))
	}
	return attributed, nil
}

// Summary aggregates classified cycles.
type Summary struct {
	Cycles      int
	Paid        int
	OnTime      int
	Late        int
	Partial     int
	Missed      int
	Upcoming    int
	Expected    decimal.Decimal
	Actual      decimal.Decimal
	TotalShort  decimal.Decimal
	TotalOver   decimal.Decimal
	Overridden  int
	LastPayment *time.Time
}

// OnTimeRate is the share of paid cycles that were not paid late, 0 to 1.
func (s Summary) OnTimeRate() float64 {
	if s.Paid == 0 {
		return 0
	}
	return float64(s.OnTime) / float64(s.Paid)
}

// Summarize totals classified cycles. Upcoming cycles count toward Upcoming
// only; their expected amount is not yet owed.
func Summarize(cs []Cycle) Summary {
	s := Summary{
		Cycles:     len(cs),
		Expected:   decimal.Zero,
		Actual:     decimal.Zero,
		TotalShort: decimal.Zero,
		TotalOver:  decimal.Zero,
	}
	for _, c := range cs {
		if c.Overridden() {
			s.Overridden++
		}
		s.Actual = s.Actual.Add(c.ActualAmount)
		if c.ActualDate != nil && (s.LastPayment == nil || c.ActualDate.After(*s.LastPayment)) {
			last := *c.ActualDate
			s.LastPayment = &last
		}
		if c.Status == StatusUpcoming {
			s.Upcoming++
			continue
		}
		s.Expected = s.Expected.Add(c.ExpectedAmount)
		s.TotalShort = s.TotalShort.Add(c.AmountShort)
		s.TotalOver = s.TotalOver.Add(c.AmountOver)
		switch {
		case c.Status.Settled():
			s.Paid++
			if c.Status == StatusPaidLate {
				s.Late++
			} else {
				s.OnTime++
			}
		case c.Status == StatusPartial:
			s.Partial++
		case c.Status.Missed():
			s.Missed++
		}
	}
	return s
}

// CurrentCycle returns the cycle whose window contains asOf. Before the first
// window it returns the first cycle; after the last it returns the last.
func CurrentCycle(cs []Cycle, asOf time.Time) (Cycle, bool) {
	if len(cs) == 0 {
		return Cycle{}, false
	}
	today := Day(asOf)
	if today.Before(cs[0].StartDate) {
		return cs[0], true
	}
	for _, c := range cs {
		if c.Contains(today) {
			return c, true
		}
	}
	return cs[len(cs)-1], true
}

// NextDue returns the earliest cycle due on or after asOf that is not yet
// settled.
func NextDue(cs []Cycle, asOf time.Time) (Cycle, bool) {
	today := Day(asOf)
	for _, c := range cs {
		if c.ExpectedDate.Before(today) || c.Status.Settled() {
			continue
		}
		return c, true
	}
	return Cycle{}, false
}
