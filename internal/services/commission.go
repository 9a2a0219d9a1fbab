package services

import "github.com/shopspring/decimal"

// DefaultCommissionRatePercent is the platform's cut when no rate is
// configured.
var DefaultCommissionRatePercent = decimal.NewFromInt(5)

// CommissionPolicy computes the platform/seller split of an order total.
// Pure and deterministic; no side effects.
type CommissionPolicy struct {
	RatePercent decimal.Decimal
}

// NewCommissionPolicy creates a policy with the given percentage rate.
func NewCommissionPolicy(ratePercent decimal.Decimal) CommissionPolicy {
	return CommissionPolicy{RatePercent: ratePercent}
}

// Split divides total into the platform commission and the seller credit.
// The commission is rounded to the smallest currency unit (2 decimal
// places); the seller credit absorbs the rounding remainder so the two
// outputs always sum to total exactly.
func (p CommissionPolicy) Split(total decimal.Decimal) (commission, sellerCredit decimal.Decimal) {
	commission = total.Mul(p.RatePercent).Div(decimal.NewFromInt(100)).Round(2)
	sellerCredit = total.Sub(commission)
	return commission, sellerCredit
}
