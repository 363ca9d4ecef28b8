package cycles

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "0", want: "$0.00"},
		{in: "5", want: "$5.00"},
		{in: "999.5", want: "$999.50"},
		{in: "1000", want: "$1,000.00"},
		{in: "1234567.891", want: "$1,234,567.89"},
		{in: "-42.1", want: "-$42.10"},
	}
	for _, tc := range tests {
		if got := FormatAmount(dec(tc.in)); got != tc.want {
			t.Fatalf("FormatAmount(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func computeFeb(t *testing.T, txs []Transaction) Cycle {
	t.Helper()
	cs, err := Compute(loanObligation(), txs, nil, Options{AsOf: mustDate(t, "2024-02-10")})
	if err != nil {
		t.Fatalf("Compute() unexpected error: %v", err)
	}
	return cycleByNumber(t, cs, 2)
}

func TestStatusMessageForEveryStatus(t *testing.T) {
	for _, s := range Statuses() {
		c := Cycle{Status: s, ExpectedAmount: dec("10"), ToleranceDays: 3}
		msg := StatusMessage(c)
		if msg.Title == "" || msg.Icon == "" || !strings.HasPrefix(msg.Color, "#") {
			t.Fatalf("StatusMessage(%q) = %+v, want title, icon and color", s, msg)
		}
		if msg.Color != StatusColor(s) || msg.Title != StatusTitle(s) {
			t.Fatalf("StatusMessage(%q) disagrees with StatusColor/StatusTitle", s)
		}
	}
	if got := StatusMessage(Cycle{Status: "bogus"}).Title; got != "Unknown" {
		t.Fatalf("StatusMessage(bogus).Title = %q, want %q", got, "Unknown")
	}
}

func TestDescribePartialCycle(t *testing.T) {
	feb := computeFeb(t, []Transaction{{ID: "t1", Amount: dec("850"), Date: "2024-02-05"}})
	d := Describe(feb, RuleOptions{})

	if d.Title != "Partial payment" {
		t.Fatalf("Title = %q, want %q", d.Title, "Partial payment")
	}
	if d.Subtitle != "$150.00 short of $1,000.00, minimum met" {
		t.Fatalf("Subtitle = %q", d.Subtitle)
	}
	want := []string{
		"$1,000.00 expected by Feb 1, 2024",
		"Minimum $800.00 required ✓",
		"Single payment expected",
		"Payment within ±3 days window ✗",
		"1 payment received",
		"Short by $150.00",
	}
	if strings.Join(d.Rules, "\n") != strings.Join(want, "\n") {
		t.Fatalf("Rules =\n%s\nwant\n%s", strings.Join(d.Rules, "\n"), strings.Join(want, "\n"))
	}
}

func TestDescribeNotPaidAndEarly(t *testing.T) {
	missed := computeFeb(t, nil)
	if got := StatusMessage(missed).Subtitle; got != "$1,000.00 overdue by 9 days" {
		t.Fatalf("not_paid subtitle = %q", got)
	}

	early := computeFeb(t, []Transaction{{ID: "t1", Amount: dec("1200"), Date: "2024-01-30"}})
	if got := StatusMessage(early).Subtitle; got != "Paid 2 days early, $200.00 extra" {
		t.Fatalf("paid_early subtitle = %q", got)
	}
	rules := Rules(early, RuleOptions{})
	if rules[len(rules)-1] != "Over by $200.00" {
		t.Fatalf("last rule = %q, want %q", rules[len(rules)-1], "Over by $200.00")
	}
}

func TestRulesUseCustomFormattersAndBreakdown(t *testing.T) {
	o := loanObligation()
	o.MinimumAmount = nil
	o.AllowsMultiplePayments = true
	o.Terms = LiabilityTerms{Principal: dec("1200"), AnnualRate: dec("12"), TermCycles: 12}
	o.Overrides = map[int]Override{1: {Notes: "first month free of fees"}}
	cs, err := Compute(o, nil, nil, Options{AsOf: mustDate(t, "2023-12-20")})
	if err != nil {
		t.Fatalf("Compute() unexpected error: %v", err)
	}
	opts := RuleOptions{
		FormatAmount:  func(d decimal.Decimal) string { return d.StringFixed(2) + " AUD" },
		FormatDate:    func(t time.Time) string { return t.Format("02/01") },
		ShowBreakdown: true,
	}
	rules := Rules(cs[0], opts)
	joined := strings.Join(rules, "\n")
	for _, want := range []string{
		"106.62 AUD expected by 01/01",
		"Multiple payments allowed",
		"Manually adjusted: first month free of fees",
		"Principal 94.62 AUD, interest 12.00 AUD",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("Rules() =\n%s\nmissing %q", joined, want)
		}
	}
	if strings.Contains(joined, "Minimum") {
		t.Fatalf("Rules() mention a minimum without one:\n%s", joined)
	}

	simple := SimpleRules(cs[0], opts)
	if len(simple) != 2 {
		t.Fatalf("SimpleRules() = %v, want multiple payments and window lines", simple)
	}
}
