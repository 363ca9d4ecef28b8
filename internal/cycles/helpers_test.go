package cycles

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func mustDate(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := ParseDate(raw)
	if err != nil {
		t.Fatalf("ParseDate(%q) unexpected error: %v", raw, err)
	}
	return d
}

func dec(raw string) decimal.Decimal {
	return decimal.RequireFromString(raw)
}

func decPtr(raw string) *decimal.Decimal {
	d := dec(raw)
	return &d
}

func monthly() Recurrence {
	return Recurrence{Frequency: Monthly, Interval: 1}
}

// loanObligation is a monthly 1000 liability due on the 1st with an 800
// minimum and the default 3 day tolerance.
func loanObligation() Obligation {
	return Obligation{
		ID:            "ob-1",
		Name:          "Car loan",
		StartDate:     "2024-01-01",
		Recurrence:    monthly(),
		Terms:         LiabilityTerms{PeriodicPayment: dec("1000")},
		MinimumAmount: decPtr("800"),
	}
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("%s = %s, want %s", name, got.String(), want)
	}
}

func cycleByNumber(t *testing.T, cs []Cycle, number int) Cycle {
	t.Helper()
	for _, c := range cs {
		if c.Number == number {
			return c
		}
	}
	t.Fatalf("cycle %d not found in %d cycles", number, len(cs))
	return Cycle{}
}
