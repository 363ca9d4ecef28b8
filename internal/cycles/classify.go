package cycles

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusUpcoming         Status = "upcoming"
	StatusNotPaid          Status = "not_paid"
	StatusPaidOnTime       Status = "paid_on_time"
	StatusPaidEarly        Status = "paid_early"
	StatusPaidLate         Status = "paid_late"
	StatusPaidWithinWindow Status = "paid_within_window"
	StatusOverpaid         Status = "overpaid"
	StatusPartial          Status = "partial"
	StatusUnderpaid        Status = "underpaid"
)

// Statuses lists every status in display order.
func Statuses() []Status {
	return []Status{
		StatusUpcoming,
		StatusNotPaid,
		StatusPaidOnTime,
		StatusPaidEarly,
		StatusPaidLate,
		StatusPaidWithinWindow,
		StatusOverpaid,
		StatusPartial,
		StatusUnderpaid,
	}
}

// Settled reports whether the expected amount has been met.
func (s Status) Settled() bool {
	switch s {
	case StatusPaidOnTime, StatusPaidEarly, StatusPaidLate, StatusPaidWithinWindow, StatusOverpaid:
		return true
	}
	return false
}

// Missed reports whether the cycle is past due without meeting its target.
func (s Status) Missed() bool {
	return s == StatusNotPaid || s == StatusUnderpaid
}

// Epsilon is the currency tolerance under which amounts compare equal.
var Epsilon = decimal.New(1, -2)

type Classification struct {
	Status      Status
	AmountShort decimal.Decimal
	AmountOver  decimal.Decimal
	DaysLate    int
	DaysEarly   int
}

// Classify derives a cycle's status from its amounts and dates. It never
// fails: missing dates fall back to asOf.
//
// Rules, first match wins:
//  1. nothing paid, before the due date: upcoming
//  2. nothing paid, on or after the due date: not_paid
//  3. expected amount met: paid_early when paid before the due date, else
//     overpaid when above the expected amount, else paid_late beyond the
//     tolerance, paid_within_window when the last payment came after the
//     window closed, paid_on_time otherwise
//  4. minimum met: partial
//  5. otherwise: underpaid
func Classify(c Cycle, asOf time.Time) Classification {
	today := Day(asOf)
	due := Day(c.ExpectedDate)
	expected := c.ExpectedAmount
	actual := c.ActualAmount

	var cl Classification
	diff := actual.Sub(expected)
	if diff.Abs().GreaterThanOrEqual(Epsilon) {
		if diff.IsPositive() {
			cl.AmountOver = diff
		} else {
			cl.AmountShort = diff.Neg()
		}
	}

	if !actual.IsPositive() {
		if today.Before(due) {
			cl.Status = StatusUpcoming
			return cl
		}
		cl.Status = StatusNotPaid
		cl.DaysLate = daysBetween(due, today)
		return cl
	}

	paidOn := today
	if c.ActualDate != nil {
		paidOn = Day(*c.ActualDate)
	}
	d := daysBetween(due, paidOn)
	if d > 0 {
		cl.DaysLate = d
	} else if d < 0 {
		cl.DaysEarly = -d
	}

	switch {
	case diff.GreaterThan(Epsilon.Neg()):
		cl.Status = paidStatus(c, paidOn, d, diff)
	case c.MinimumAmount != nil && actual.GreaterThanOrEqual(*c.MinimumAmount):
		cl.Status = StatusPartial
	default:
		cl.Status = StatusUnderpaid
	}
	return cl
}

func paidStatus(c Cycle, paidOn time.Time, d int, diff decimal.Decimal) Status {
	switch {
	case d < 0:
		return StatusPaidEarly
	case diff.GreaterThanOrEqual(Epsilon):
		return StatusOverpaid
	case d > c.ToleranceDays:
		return StatusPaidLate
	case !c.EndDate.IsZero() && paidOn.After(c.EndDate):
		return StatusPaidWithinWindow
	default:
		return StatusPaidOnTime
	}
}
