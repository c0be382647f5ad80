package budget

import (
	budgetDatamodel "github.com/AbrarAhmad001/antigravity-budget/internal/core/datamodel/budget"
	summaryDatamodel "github.com/AbrarAhmad001/antigravity-budget/internal/core/datamodel/summary"
	"github.com/AbrarAhmad001/antigravity-budget/internal/core/datamodel/transaction"
)

// goalReachedMsg is the label shown when a limit is blown or a savings goal
// is met.
const goalReachedMsg = "Goal Reached!!"

// StatusFor computes the alert for one budget given the realized amount for
// the period. budgetType is expense or savings: expense budgets degrade as
// spending approaches the limit, savings budgets succeed as the goal fills.
// A zero-amount budget never divides; it saturates straight to the terminal
// tier as soon as anything is realized.
func StatusFor(b budgetDatamodel.Budget, spent float64, budgetType string) budgetDatamodel.Alert {
	threshold := b.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = budgetDatamodel.DefaultThreshold
	}

	var percent float64
	goalReached := false
	switch {
	case b.Amount > 0:
		percent = spent / b.Amount * 100
		goalReached = spent >= b.Amount
	case spent > 0:
		goalReached = true
	}

	alert := budgetDatamodel.Alert{
		Category:   b.Category,
		Limit:      b.Amount,
		Spent:      spent,
		Percentage: percent,
		Status:     budgetDatamodel.StatusNormal,
		Type:       budgetType,
	}

	if budgetType == transaction.TypeSavings {
		if goalReached {
			alert.Status = budgetDatamodel.StatusSuccess
			alert.Msg = goalReachedMsg
		}
		return alert
	}

	if goalReached {
		alert.Status = budgetDatamodel.StatusCritical
		alert.Msg = goalReachedMsg
	} else if b.Amount > 0 && spent >= b.Amount*threshold {
		alert.Status = budgetDatamodel.StatusWarning
	}

	return alert
}

// AlertsFor derives the alert list for a period: realized spend per category
// comes from the monthly summary's expense and savings breakdowns (savings
// entries win on a key collision), and a budget counts as a savings goal
// when its category belongs to the savings set. A budget with no realized
// activity yields spent 0 and a normal tier; absence of activity is never an
// alert. One alert is produced per budget in input order; the engine does
// not deduplicate.
func AlertsFor(budgets []budgetDatamodel.Budget, sum summaryDatamodel.Summary, savingsSet []string) []budgetDatamodel.Alert {
	realized := make(map[string]float64, len(sum.ExpenseBreakdown)+len(sum.SavingsBreakdown))
	for category, amount := range sum.ExpenseBreakdown {
		realized[category] = amount
	}
	for category, amount := range sum.SavingsBreakdown {
		realized[category] = amount
	}

	savings := make(map[string]bool, len(savingsSet))
	for _, c := range savingsSet {
		savings[c] = true
	}

	alerts := make([]budgetDatamodel.Alert, 0, len(budgets))
	for _, b := range budgets {
		budgetType := transaction.TypeExpense
		if savings[b.Category] {
			budgetType = transaction.TypeSavings
		}
		alerts = append(alerts, StatusFor(b, realized[b.Category], budgetType))
	}
	return alerts
}

// ForPeriod filters budgets down to those scoped to the given month/year.
// Recurring budgets (no month/year) are not period-scoped and are excluded.
func ForPeriod(budgets []budgetDatamodel.Budget, month, year int) []budgetDatamodel.Budget {
	out := make([]budgetDatamodel.Budget, 0, len(budgets))
	for _, b := range budgets {
		if b.Month != nil && b.Year != nil && *b.Month == month && *b.Year == year {
			out = append(out, b)
		}
	}
	return out
}

// DisplayPercent clamps an alert's percentage into [0, 100] for progress
// bar width. The alert's numeric fields are never clamped.
func DisplayPercent(a budgetDatamodel.Alert) float64 {
	switch {
	case a.Percentage < 0:
		return 0
	case a.Percentage > 100:
		return 100
	}
	return a.Percentage
}
