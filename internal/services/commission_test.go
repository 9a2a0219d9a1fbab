package services_test

import (
	"testing"

	"pasar/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCommissionPolicy_Split(t *testing.T) {
	policy := services.NewCommissionPolicy(decimal.NewFromInt(5))

	tests := []struct {
		name           string
		total          string
		wantCommission string
		wantCredit     string
	}{
		{"round total", "1000", "50", "950"},
		{"small total", "100", "5", "95"},
		{"cents", "10.50", "0.53", "9.97"},
		{"one cent", "0.01", "0", "0.01"},
		{"just under round", "99.99", "5", "94.99"},
		{"zero", "0", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := decimal.RequireFromString(tt.total)
			commission, credit := policy.Split(total)

			assert.True(t, commission.Equal(decimal.RequireFromString(tt.wantCommission)),
				"commission: got %s, want %s", commission, tt.wantCommission)
			assert.True(t, credit.Equal(decimal.RequireFromString(tt.wantCredit)),
				"credit: got %s, want %s", credit, tt.wantCredit)
		})
	}
}

// The sum of the two outputs must equal the input exactly, whatever the
// rounding does to the commission side.
func TestCommissionPolicy_NoRoundingLeakage(t *testing.T) {
	rates := []int64{1, 3, 5, 7, 10, 15, 33}
	totals := []string{"0.01", "0.03", "1", "9.99", "10.01", "33.33", "99.99", "1000", "123456.78"}

	for _, rate := range rates {
		policy := services.NewCommissionPolicy(decimal.NewFromInt(rate))
		for _, raw := range totals {
			total := decimal.RequireFromString(raw)
			commission, credit := policy.Split(total)
			assert.True(t, commission.Add(credit).Equal(total),
				"rate %d%% total %s: %s + %s != %s", rate, total, commission, credit, total)
			assert.False(t, commission.IsNegative(), "rate %d%% total %s: negative commission", rate, total)
		}
	}
}

func TestCommissionPolicy_Deterministic(t *testing.T) {
	policy := services.NewCommissionPolicy(decimal.NewFromInt(5))
	total := decimal.RequireFromString("123.45")

	c1, s1 := policy.Split(total)
	c2, s2 := policy.Split(total)
	assert.True(t, c1.Equal(c2))
	assert.True(t, s1.Equal(s2))
}
