package cart

import "github.com/shopspring/decimal"

// FormatAmount renders d the way the storefront displays money: "R$ 20,00".
func FormatAmount(d decimal.Decimal) string {
	return DefaultTemplate().FormatAmount(d)
}

// ClampPrice returns d, or zero when d is negative.
func ClampPrice(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
