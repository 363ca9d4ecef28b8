package cycles

import "github.com/shopspring/decimal"

var (
	one         = decimal.NewFromInt(1)
	centsPlaces = int32(2)
)

// AmortizedPayment is the level payment that clears principal over term
// periods at the given per-period rate.
func AmortizedPayment(principal, rate decimal.Decimal, term int) decimal.Decimal {
	if term <= 0 {
		return decimal.Zero
	}
	if !rate.IsPositive() {
		return principal.DivRound(decimal.NewFromInt(int64(term)), centsPlaces)
	}
	growth := one
	base := one.Add(rate)
	for i := 0; i < term; i++ {
		growth = growth.Mul(base).Round(18)
	}
	return principal.Mul(rate).Mul(growth).DivRound(growth.Sub(one), centsPlaces)
}

// amortize splits each payment into interest on the outstanding balance and
// principal. The final cycle pays off whatever balance remains. A positive
// fixed payment replaces the computed level payment.
func amortize(principal, rate decimal.Decimal, term int, fixed decimal.Decimal, count int) []Installment {
	payment := fixed
	if !payment.IsPositive() {
		payment = AmortizedPayment(principal, rate, term)
	}

	out := make([]Installment, count)
	balance := principal
	for i := range out {
		number := i + 1
		if number > term || !balance.IsPositive() {
			zero := decimal.Zero
			out[i] = Installment{Amount: decimal.Zero, Principal: &zero, Interest: &zero}
			continue
		}
		interest := balance.Mul(rate).Round(centsPlaces)
		principalPart := payment.Sub(interest)
		if number == term || principalPart.GreaterThan(balance) {
			principalPart = balance
		}
		if principalPart.IsNegative() {
			principalPart = decimal.Zero
		}
		balance = balance.Sub(principalPart)
		out[i] = Installment{
			Amount:    principalPart.Add(interest),
			Principal: &principalPart,
			Interest:  &interest,
		}
	}
	return out
}
