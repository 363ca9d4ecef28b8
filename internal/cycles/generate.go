package cycles

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultMaxCycles bounds generation when the caller passes no limit.
const DefaultMaxCycles = 240

type window struct {
	start time.Time
	end   time.Time
}

// GenerateCycles lays out cycle windows from the obligation's start date. It
// stops at maxCycles, at the obligation's end date or last term cycle, or once
// it has emitted the first cycle that starts after asOf, so exactly one
// upcoming cycle follows today.
func GenerateCycles(o Obligation, asOf time.Time, maxCycles int) ([]Cycle, error) {
	if o.Terms == nil {
		return nil, errors.New("obligation has no terms")
	}
	if err := o.Recurrence.Validate(); err != nil {
		return nil, err
	}
	start, err := ParseDate(o.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStartDate, err)
	}
	var until time.Time
	if strings.TrimSpace(o.EndDate) != "" {
		until, err = ParseDate(o.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEndDate, err)
		}
		if until.Before(start) {
			return nil, fmt.Errorf("%w: %s is before start %s", ErrInvalidEndDate, FormatDate(until), FormatDate(start))
		}
	}

	limit := maxCycles
	if limit <= 0 {
		limit = DefaultMaxCycles
	}
	if last := o.Terms.LastCycle(); last > 0 && last < limit {
		limit = last
	}

	today := Day(asOf)
	windows := make([]window, 0, 16)
	for n := 0; n < limit; n++ {
		ws := o.Recurrence.Nth(start, n)
		if !until.IsZero() && ws.After(until) {
			break
		}
		we := addDays(o.Recurrence.Nth(start, n+1), -1)
		windows = append(windows, window{start: ws, end: we})
		if ws.After(today) {
			break
		}
	}

	installments := o.Terms.Installments(o.Recurrence, len(windows))
	tolerance := o.Tolerance()
	out := make([]Cycle, len(windows))
	for i, w := range windows {
		due := o.Terms.DueDate(w.start, w.end)
		out[i] = Cycle{
			Number:                 i + 1,
			Kind:                   o.Kind(),
			StartDate:              w.start,
			EndDate:                w.end,
			ScheduledDate:          due,
			ExpectedDate:           due,
			ExpectedAmount:         installments[i].Amount,
			Principal:              installments[i].Principal,
			Interest:               installments[i].Interest,
			MinimumAmount:          o.MinimumAmount,
			ToleranceDays:          tolerance,
			AllowsMultiplePayments: o.AllowsMultiplePayments,
			MatchStart:             w.start,
			MatchEnd:               w.end,
			Status:                 StatusUpcoming,
		}
	}
	return out, nil
}
