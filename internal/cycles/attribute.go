package cycles

import (
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentTiming string

const (
	TimingEarly        PaymentTiming = "early"
	TimingOnTime       PaymentTiming = "on_time"
	TimingWithinWindow PaymentTiming = "within_window"
	TimingLate         PaymentTiming = "late"
)

// Metadata keys written onto attributed copies.
const (
	MetaCycleNumber   = "cycle_number"
	MetaPaymentTiming = "payment_timing"
	MetaWithinWindow  = "is_within_window"
)

// Transaction is a payment or contribution owned by the caller.
type Transaction struct {
	ID       string
	Amount   decimal.Decimal
	Date     string
	Metadata map[string]string
}

// Bill is a statement or invoice owned by the caller.
type Bill struct {
	ID          string
	Amount      decimal.Decimal
	TotalAmount *decimal.Decimal
	DueDate     string
	Status      string
	Metadata    map[string]string
}

// Billed is the amount a bill asks for: its total when present.
func (b Bill) Billed() decimal.Decimal {
	if b.TotalAmount != nil {
		return *b.TotalAmount
	}
	return b.Amount
}

// AttributedTransaction is a copy of a transaction tagged with its cycle.
type AttributedTransaction struct {
	Transaction
	On           time.Time
	CycleNumber  int
	Timing       PaymentTiming
	WithinWindow bool
}

// AttributedBill is a copy of a bill tagged with its cycle.
type AttributedBill struct {
	Bill
	Due         time.Time
	CycleNumber int
}

// TimingFor classifies a payment date against a due date. A payment exactly
// toleranceDays after the due date is still within the window; one day more
// is late.
func TimingFor(paid, due time.Time, toleranceDays int) (PaymentTiming, bool) {
	d := daysBetween(due, paid)
	within := d >= -toleranceDays && d <= toleranceDays
	switch {
	case d < 0:
		return TimingEarly, within
	case d == 0:
		return TimingOnTime, within
	case d <= toleranceDays:
		return TimingWithinWindow, within
	default:
		return TimingLate, within
	}
}

// Attribute assigns transactions and bills to cycles and aggregates the
// actual amount, latest payment date and payment count of each cycle.
//
// Each cycle owns a contiguous match range derived from its window and the
// tolerance band around its scheduled due date: a cycle due on its first day
// also takes payments made up to toleranceDays before it, and a cycle due on
// its last day keeps payments made up to toleranceDays after it. Entries with
// unparseable dates, or dates outside every range, are skipped. Inputs are
// never modified.
func Attribute(cycles []Cycle, transactions []Transaction, bills []Bill, toleranceDays int) []Cycle {
	out := cloneCycles(cycles)
	if len(out) == 0 {
		return out
	}
	toleranceDays = max(0, toleranceDays)
	setMatchRanges(out, toleranceDays)

	for i := range out {
		out[i].Transactions = nil
		out[i].Bills = nil
	}

	for _, tx := range transactions {
		on, err := ParseDate(tx.Date)
		if err != nil {
			continue
		}
		idx := matchIndex(out, on)
		if idx < 0 {
			continue
		}
		c := &out[idx]
		timing, within := TimingFor(on, c.ExpectedDate, toleranceDays)
		copied := tx
		copied.Metadata = tagMetadata(tx.Metadata, map[string]string{
			MetaCycleNumber:   strconv.Itoa(c.Number),
			MetaPaymentTiming: string(timing),
			MetaWithinWindow:  strconv.FormatBool(within),
		})
		c.Transactions = append(c.Transactions, AttributedTransaction{
			Transaction:  copied,
			On:           on,
			CycleNumber:  c.Number,
			Timing:       timing,
			WithinWindow: within,
		})
	}

	for _, bill := range bills {
		due, err := ParseDate(bill.DueDate)
		if err != nil {
			continue
		}
		idx := matchIndex(out, due)
		if idx < 0 {
			continue
		}
		c := &out[idx]
		copied := bill
		copied.Metadata = tagMetadata(bill.Metadata, map[string]string{
			MetaCycleNumber: strconv.Itoa(c.Number),
		})
		c.Bills = append(c.Bills, AttributedBill{Bill: copied, Due: due, CycleNumber: c.Number})
	}

	for i := range out {
		aggregate(&out[i])
	}
	return out
}

func aggregate(c *Cycle) {
	sort.SliceStable(c.Transactions, func(i, j int) bool {
		if !c.Transactions[i].On.Equal(c.Transactions[j].On) {
			return c.Transactions[i].On.Before(c.Transactions[j].On)
		}
		return c.Transactions[i].ID < c.Transactions[j].ID
	})
	sort.SliceStable(c.Bills, func(i, j int) bool {
		if !c.Bills[i].Due.Equal(c.Bills[j].Due) {
			return c.Bills[i].Due.Before(c.Bills[j].Due)
		}
		return c.Bills[i].ID < c.Bills[j].ID
	})

	c.ActualAmount = decimal.Zero
	c.ActualDate = nil
	c.PaymentCount = len(c.Transactions)
	for _, tx := range c.Transactions {
		c.ActualAmount = c.ActualAmount.Add(tx.Amount)
	}
	if n := len(c.Transactions); n > 0 {
		last := c.Transactions[n-1].On
		c.ActualDate = &last
	}

	c.BilledAmount = decimal.Zero
	for _, b := range c.Bills {
		c.BilledAmount = c.BilledAmount.Add(b.Billed())
	}
}

// setMatchRanges computes contiguous, non-empty match ranges. The boundary
// between cycles k and k+1 is k+1's start, moved later by the days k's band
// reaches past its end and earlier by the days k+1's band reaches before its
// start.
func setMatchRanges(cs []Cycle, toleranceDays int) {
	lead := func(c Cycle) int {
		return max(0, daysBetween(addDays(c.ScheduledDate, -toleranceDays), c.StartDate))
	}
	trail := func(c Cycle) int {
		return max(0, daysBetween(c.EndDate, addDays(c.ScheduledDate, toleranceDays)))
	}

	cs[0].MatchStart = addDays(cs[0].StartDate, -lead(cs[0]))
	for i := 0; i+1 < len(cs); i++ {
		boundary := addDays(cs[i+1].StartDate, trail(cs[i])-lead(cs[i+1]))
		if !boundary.After(cs[i].MatchStart) {
			boundary = addDays(cs[i].MatchStart, 1)
		}
		if boundary.After(cs[i+1].EndDate) {
			boundary = cs[i+1].EndDate
		}
		cs[i].MatchEnd = addDays(boundary, -1)
		cs[i+1].MatchStart = boundary
	}
	last := len(cs) - 1
	cs[last].MatchEnd = addDays(cs[last].EndDate, trail(cs[last]))
	if cs[last].MatchEnd.Before(cs[last].MatchStart) {
		cs[last].MatchEnd = cs[last].MatchStart
	}
}

func matchIndex(cs []Cycle, day time.Time) int {
	i := sort.Search(len(cs), func(i int) bool {
		return !cs[i].MatchEnd.Before(day)
	})
	if i == len(cs) || day.Before(cs[i].MatchStart) {
		return -1
	}
	return i
}

func tagMetadata(src map[string]string, tags map[string]string) map[string]string {
	out := make(map[string]string, len(src)+len(tags))
	for k, v := range src {
		out[k] = v
	}
	for k, v := range tags {
		out[k] = v
	}
	return out
}
