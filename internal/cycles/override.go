package cycles

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Override is a user correction for one cycle. Nil fields keep the computed
// value. Overrides change the cycle's target only; they never move window
// bounds or re-bucket attributed payments.
type Override struct {
	Amount  *decimal.Decimal
	Minimum *decimal.Decimal
	Date    string
	Notes   string
}

// ParseAmount reads a user-entered amount such as "$1,250.00".
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("amount is empty")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q is not a number", raw)
	}
	return d, nil
}

// ParseOverride builds an override from form input. Blank fields stay unset.
func ParseOverride(amount, minimum, date, notes string) (Override, error) {
	var ov Override
	if strings.TrimSpace(amount) != "" {
		d, err := ParseAmount(amount)
		if err != nil {
			return Override{}, fmt.Errorf("%w: %v", ErrInvalidOverride, err)
		}
		ov.Amount = &d
	}
	if strings.TrimSpace(minimum) != "" {
		d, err := ParseAmount(minimum)
		if err != nil {
			return Override{}, fmt.Errorf("%w: minimum: %v", ErrInvalidOverride, err)
		}
		ov.Minimum = &d
	}
	if strings.TrimSpace(date) != "" {
		day, err := ParseDate(date)
		if err != nil {
			return Override{}, fmt.Errorf("%w: %v", ErrInvalidOverride, err)
		}
		ov.Date = FormatDate(day)
	}
	ov.Notes = strings.TrimSpace(notes)
	return ov, nil
}

// ValidateOverride checks an override for the given cycle. computed is the
// generator's amount for the cycle and is used when the override leaves the
// amount unset.
func ValidateOverride(number int, ov Override, computed decimal.Decimal) error {
	if number < 1 {
		return fmt.Errorf("%w: cycle number must be 1 or more, got %d", ErrInvalidOverride, number)
	}
	if ov.Amount != nil && ov.Amount.IsNegative() {
		return fmt.Errorf("%w: cycle %d amount %s is negative", ErrInvalidOverride, number, ov.Amount.String())
	}
	if ov.Minimum != nil && ov.Minimum.IsNegative() {
		return fmt.Errorf("%w: cycle %d minimum %s is negative", ErrInvalidOverride, number, ov.Minimum.String())
	}
	if strings.TrimSpace(ov.Date) != "" {
		if _, err := ParseDate(ov.Date); err != nil {
			return fmt.Errorf("%w: cycle %d: %v", ErrInvalidOverride, number, err)
		}
	}
	target := computed
	if ov.Amount != nil {
		target = *ov.Amount
	}
	if ov.Minimum != nil && ov.Minimum.GreaterThan(target) {
		return fmt.Errorf(
			"%w: cycle %d minimum %s exceeds amount %s",
			ErrInvalidOverride,
			number,
			ov.Minimum.StringFixed(centsPlaces),
			target.StringFixed(centsPlaces),
		)
	}
	return nil
}

// ApplyOverrides patches generated cycles with user corrections. Each
// override must be consistent on its own, including ones for cycles beyond the
// generated horizon. A minimum-only override that now exceeds the generated
// amount is clamped to it and recorded on the cycle as StaleMinimum. The input
// slice is not modified.
func ApplyOverrides(cycles []Cycle, overrides map[int]Override) ([]Cycle, error) {
	out := cloneCycles(cycles)
	if len(overrides) == 0 {
		return out, nil
	}

	byNumber := make(map[int]int, len(out))
	for i := range out {
		byNumber[out[i].Number] = i
	}

	numbers := make([]int, 0, len(overrides))
	for n := range overrides {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	for _, n := range numbers {
		ov := overrides[n]
		own := decimal.Zero
		switch {
		case ov.Amount != nil:
			own = *ov.Amount
		case ov.Minimum != nil:
			own = *ov.Minimum
		}
		if err := ValidateOverride(n, ov, own); err != nil {
			return nil, err
		}
		idx, ok := byNumber[n]
		if !ok {
			continue
		}

		c := &out[idx]
		if ov.Amount != nil {
			c.ExpectedAmount = *ov.Amount
		}
		if ov.Minimum != nil {
			minimum := *ov.Minimum
			if minimum.GreaterThan(c.ExpectedAmount) {
				stale := minimum
				c.StaleMinimum = &stale
				minimum = c.ExpectedAmount
			}
			c.MinimumAmount = &minimum
		}
		if strings.TrimSpace(ov.Date) != "" {
			day, _ := ParseDate(ov.Date)
			c.ExpectedDate = day
		}
		applied := ov
		c.Override = &applied
	}
	return out, nil
}
