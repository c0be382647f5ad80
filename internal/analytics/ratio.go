package analytics

import (
	"fmt"
	"math"

	summaryDatamodel "github.com/AbrarAhmad001/antigravity-budget/internal/core/datamodel/summary"
)

// Ratio reduces a summary's income:expense:savings totals to the smallest
// integer ratio, formatted "a:b:c", for the income-vs-outflow chart. Each
// total is rounded to the nearest whole unit before the GCD is taken; the
// rounding-first order is kept from the legacy dashboard even though it can
// distort near-equal fractional totals. With no activity at all the ratio
// is undefined and the empty string is returned; fractional totals that
// round to zero still render, as "0:0:0".
func Ratio(sum summaryDatamodel.Summary) string {
	if sum.TotalIncome+sum.TotalExpense+sum.TotalSavings <= 0 {
		return ""
	}

	income := int(math.Round(sum.TotalIncome))
	expense := int(math.Round(sum.TotalExpense))
	savings := int(math.Round(sum.TotalSavings))

	divisor := gcd(gcd(income, expense), savings)
	if divisor == 0 {
		divisor = 1
	}

	return fmt.Sprintf("%d:%d:%d", income/divisor, expense/divisor, savings/divisor)
}

// gcd treats gcd(x, 0) as x.
func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
