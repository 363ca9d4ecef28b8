package cycles

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Message is the short presentation of a cycle's status.
type Message struct {
	Title    string
	Subtitle string
	Icon     string
	Color    string
}

// Description bundles the status message with the cycle's rules.
type Description struct {
	Message
	Rules []string
}

// RuleOptions controls formatting. Zero values fall back to FormatAmount and
// FormatDisplayDate.
type RuleOptions struct {
	FormatAmount func(decimal.Decimal) string
	FormatDate   func(time.Time) string
	// ShowBreakdown adds principal/interest and bill lines when available.
	ShowBreakdown bool
}

func (o RuleOptions) amount(d decimal.Decimal) string {
	if o.FormatAmount != nil {
		return o.FormatAmount(d)
	}
	return FormatAmount(d)
}

func (o RuleOptions) date(t time.Time) string {
	if o.FormatDate != nil {
		return o.FormatDate(t)
	}
	return FormatDisplayDate(t)
}

type statusStyle struct {
	title string
	icon  string
	color string
}

var statusStyles = map[Status]statusStyle{
	StatusUpcoming:         {title: "Upcoming", icon: "calendar-clock", color: "#87CEEB"},
	StatusNotPaid:          {title: "Not paid", icon: "alert-circle", color: "#F15B5B"},
	StatusPaidOnTime:       {title: "Paid on time", icon: "check-circle", color: "#5CCB76"},
	StatusPaidEarly:        {title: "Paid early", icon: "clock-fast", color: "#34D399"},
	StatusPaidLate:         {title: "Paid late", icon: "clock-alert", color: "#F59E0B"},
	StatusPaidWithinWindow: {title: "Paid within window", icon: "check-circle-outline", color: "#A3E635"},
	StatusOverpaid:         {title: "Overpaid", icon: "trending-up", color: "#A78BFA"},
	StatusPartial:          {title: "Partial payment", icon: "circle-half-full", color: "#FFD54A"},
	StatusUnderpaid:        {title: "Underpaid", icon: "alert", color: "#FB923C"},
}

var fallbackStyle = statusStyle{title: "Unknown", icon: "help-circle", color: "#9CA3AF"}

// StatusColor returns the hex color for a status.
func StatusColor(s Status) string {
	if st, ok := statusStyles[s]; ok {
		return st.color
	}
	return fallbackStyle.color
}

// StatusTitle returns the display title for a status.
func StatusTitle(s Status) string {
	if st, ok := statusStyles[s]; ok {
		return st.title
	}
	return fallbackStyle.title
}

// StatusMessage maps a classified cycle to its title, subtitle, icon and
// color using the default formatters.
func StatusMessage(c Cycle) Message {
	return statusMessage(c, RuleOptions{})
}

func statusMessage(c Cycle, opts RuleOptions) Message {
	st, ok := statusStyles[c.Status]
	if !ok {
		st = fallbackStyle
	}
	return Message{
		Title:    st.title,
		Subtitle: subtitle(c, opts),
		Icon:     st.icon,
		Color:    st.color,
	}
}

func subtitle(c Cycle, opts RuleOptions) string {
	switch c.Status {
	case StatusUpcoming:
		return fmt.Sprintf("%s due %s", opts.amount(c.ExpectedAmount), opts.date(c.ExpectedDate))
	case StatusNotPaid:
		if c.DaysLate == 0 {
			return fmt.Sprintf("%s due today", opts.amount(c.ExpectedAmount))
		}
		return fmt.Sprintf("%s overdue by %s", opts.amount(c.AmountShort), plural(c.DaysLate, "day"))
	case StatusPaidOnTime:
		return fmt.Sprintf("Paid %s on %s", opts.amount(c.ActualAmount), actualDate(c, opts))
	case StatusPaidEarly:
		s := fmt.Sprintf("Paid %s early", plural(c.DaysEarly, "day"))
		if c.AmountOver.IsPositive() {
			s += fmt.Sprintf(", %s extra", opts.amount(c.AmountOver))
		}
		return s
	case StatusPaidLate:
		return fmt.Sprintf("Paid %s late", plural(c.DaysLate, "day"))
	case StatusPaidWithinWindow:
		return fmt.Sprintf(
			"Paid %s after due, inside the %s window",
			plural(c.DaysLate, "day"),
			plural(c.ToleranceDays, "day"),
		)
	case StatusOverpaid:
		return fmt.Sprintf("Paid %s more than expected", opts.amount(c.AmountOver))
	case StatusPartial:
		return fmt.Sprintf("%s short of %s, minimum met", opts.amount(c.AmountShort), opts.amount(c.ExpectedAmount))
	case StatusUnderpaid:
		if c.MinimumAmount != nil {
			return fmt.Sprintf(
				"%s short, below the %s minimum",
				opts.amount(c.AmountShort),
				opts.amount(*c.MinimumAmount),
			)
		}
		return fmt.Sprintf("%s short of %s", opts.amount(c.AmountShort), opts.amount(c.ExpectedAmount))
	default:
		return ""
	}
}

func actualDate(c Cycle, opts RuleOptions) string {
	if c.ActualDate == nil {
		return opts.date(c.ExpectedDate)
	}
	return opts.date(*c.ActualDate)
}

// Rules lists plain-language facts about how the cycle was assessed.
func Rules(c Cycle, opts RuleOptions) []string {
	rules := []string{
		fmt.Sprintf("%s expected by %s", opts.amount(c.ExpectedAmount), opts.date(c.ExpectedDate)),
	}
	rules = append(rules, SimpleRules(c, opts)...)

	switch {
	case c.PaymentCount == 1:
		rules = append(rules, "1 payment received")
	case c.PaymentCount > 1:
		rules = append(rules, fmt.Sprintf("%d payments received", c.PaymentCount))
	}
	if c.PaymentCount > 0 && c.AmountShort.IsPositive() {
		rules = append(rules, fmt.Sprintf("Short by %s", opts.amount(c.AmountShort)))
	}
	if c.AmountOver.IsPositive() {
		rules = append(rules, fmt.Sprintf("Over by %s", opts.amount(c.AmountOver)))
	}
	if c.Override != nil {
		line := "Manually adjusted"
		if c.Override.Notes != "" {
			line += ": " + c.Override.Notes
		}
		rules = append(rules, line)
	}
	if c.StaleMinimum != nil {
		rules = append(rules, fmt.Sprintf(
			"Override minimum %s exceeds the current amount, using %s",
			opts.amount(*c.StaleMinimum),
			opts.amount(c.ExpectedAmount),
		))
	}
	if opts.ShowBreakdown {
		if c.Principal != nil && c.Interest != nil {
			rules = append(rules, fmt.Sprintf(
				"Principal %s, interest %s",
				opts.amount(*c.Principal),
				opts.amount(*c.Interest),
			))
		}
		if len(c.Bills) > 0 {
			rules = append(rules, fmt.Sprintf("Billed %s", opts.amount(c.BilledAmount)))
		}
	}
	return rules
}

// SimpleRules is the short form shown on list rows: minimum, payment count
// policy and tolerance window.
func SimpleRules(c Cycle, opts RuleOptions) []string {
	rules := make([]string, 0, 3)
	if c.MinimumAmount != nil && c.MinimumAmount.IsPositive() {
		rules = append(rules, fmt.Sprintf("Minimum %s required", opts.amount(*c.MinimumAmount))+minimumMark(c))
	}
	if c.AllowsMultiplePayments {
		rules = append(rules, "Multiple payments allowed")
	} else {
		rules = append(rules, "Single payment expected")
	}
	if c.ToleranceDays > 0 {
		rules = append(rules, fmt.Sprintf("Payment within ±%s window", plural(c.ToleranceDays, "day"))+windowMark(c))
	}
	return rules
}

func minimumMark(c Cycle) string {
	switch {
	case c.Status == StatusPartial || c.Status.Settled():
		return " ✓"
	case c.Status == StatusUnderpaid:
		return " ✗"
	}
	return ""
}

func windowMark(c Cycle) string {
	switch c.Status {
	case StatusPaidOnTime, StatusPaidEarly, StatusPaidWithinWindow:
		return " ✓"
	case StatusPaidLate, StatusNotPaid:
		return " ✗"
	case StatusOverpaid, StatusPartial, StatusUnderpaid:
		if c.DaysLate > c.ToleranceDays {
			return " ✗"
		}
		return " ✓"
	}
	return ""
}

// Describe combines StatusMessage and Rules.
func Describe(c Cycle, opts RuleOptions) Description {
	return Description{
		Message: statusMessage(c, opts),
		Rules:   Rules(c, opts),
	}
}

// FormatAmount renders a dollar amount with thousands separators: $1,250.00.
func FormatAmount(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(centsPlaces)
	whole, cents, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	for i, ch := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	return sign + "$" + b.String() + "." + cents
}

// FormatDisplayDate renders dates the way rules and subtitles show them.
func FormatDisplayDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
