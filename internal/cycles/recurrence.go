package cycles

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Frequency string

const (
	Daily      Frequency = "daily"
	Weekly     Frequency = "weekly"
	Biweekly   Frequency = "biweekly"
	Monthly    Frequency = "monthly"
	Bimonthly  Frequency = "bimonthly"
	Quarterly  Frequency = "quarterly"
	Semiannual Frequency = "semiannual"
	Annual     Frequency = "annual"
)

type frequencyStep struct {
	days   int
	months int
}

var frequencySteps = map[Frequency]frequencyStep{
	Daily:      {days: 1},
	Weekly:     {days: 7},
	Biweekly:   {days: 14},
	Monthly:    {months: 1},
	Bimonthly:  {months: 2},
	Quarterly:  {months: 3},
	Semiannual: {months: 6},
	Annual:     {months: 12},
}

var frequencyAliases = map[string]Frequency{
	"fortnightly":  Biweekly,
	"bi-weekly":    Biweekly,
	"bi-monthly":   Bimonthly,
	"semi-annual":  Semiannual,
	"semiannually": Semiannual,
	"annually":     Annual,
	"yearly":       Annual,
}

// Frequencies lists the supported frequencies from shortest to longest.
func Frequencies() []Frequency {
	return []Frequency{Daily, Weekly, Biweekly, Monthly, Bimonthly, Quarterly, Semiannual, Annual}
}

// ParseFrequency normalizes user or backend input, accepting common aliases
// such as "fortnightly" and "yearly".
func ParseFrequency(raw string) (Frequency, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := frequencySteps[Frequency(trimmed)]; ok {
		return Frequency(trimmed), true
	}
	if f, ok := frequencyAliases[trimmed]; ok {
		return f, true
	}
	return "", false
}

// Recurrence is a frequency repeated every Interval periods ("monthly x 2").
type Recurrence struct {
	Frequency Frequency
	Interval  int
}

func (r Recurrence) Validate() error {
	if r.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %d", ErrInvalidRecurrence, r.Interval)
	}
	if _, ok := frequencySteps[r.Frequency]; !ok {
		return fmt.Errorf("%w: unknown frequency %q, want one of %s", ErrInvalidRecurrence, r.Frequency, frequencyList())
	}
	return nil
}

func frequencyList() string {
	names := make([]string, 0, len(frequencySteps))
	for _, f := range Frequencies() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

// Nth returns the start of the n-th period (0-based) after anchor. Month based
// frequencies are always computed from the anchor so end-of-month clamping
// never drifts (Jan 31, Feb 29, Mar 31, ...).
func (r Recurrence) Nth(anchor time.Time, n int) time.Time {
	step := frequencySteps[r.Frequency]
	if step.months > 0 {
		return addMonthsClamped(anchor, step.months*r.Interval*n)
	}
	return addDays(Day(anchor), step.days*r.Interval*n)
}

// PeriodsPerYear is used to turn an annual interest rate into a per-cycle rate.
func (r Recurrence) PeriodsPerYear() decimal.Decimal {
	step := frequencySteps[r.Frequency]
	interval := int64(max(1, r.Interval))
	if step.months > 0 {
		return decimal.NewFromInt(12).Div(decimal.NewFromInt(int64(step.months) * interval))
	}
	return decimal.NewFromInt(365).Div(decimal.NewFromInt(int64(step.days) * interval))
}

func (r Recurrence) String() string {
	if r.Interval <= 1 {
		return string(r.Frequency)
	}
	return fmt.Sprintf("%s x %d", r.Frequency, r.Interval)
}
