package summary

// Summary holds the period totals and per-category breakdowns the dashboard
// renders. Derived fresh on every query; never persisted.
type Summary struct {
	Month            int                `json:"month,omitempty"`
	Year             int                `json:"year,omitempty"`
	TotalIncome      float64            `json:"total_income"`
	TotalExpense     float64            `json:"total_expense"`
	TotalSavings     float64            `json:"total_savings"`
	NetBalance       float64            `json:"net_balance"`
	IncomeBreakdown  map[string]float64 `json:"income_breakdown"`
	ExpenseBreakdown map[string]float64 `json:"expense_breakdown"`
	SavingsBreakdown map[string]float64 `json:"savings_breakdown"`
}

// OverallSavings is the all-time savings aggregate, computed over the entire
// ledger with no period filter.
type OverallSavings struct {
	TotalOverallSavings float64            `json:"total_overall_savings"`
	SavingsBreakdown    map[string]float64 `json:"savings_breakdown"`
}

// DailyFlow is one row of the per-day month chart.
type DailyFlow struct {
	Day     int     `json:"day"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Savings float64 `json:"savings"`
}
