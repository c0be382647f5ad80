package analytics

import (
	"sort"

	summaryDatamodel "github.com/AbrarAhmad001/antigravity-budget/internal/core/datamodel/summary"
	"github.com/AbrarAhmad001/antigravity-budget/internal/core/datamodel/transaction"
	"github.com/AbrarAhmad001/antigravity-budget/internal/reconcile"
)

// Summarize partitions transactions by type and produces totals and
// per-category breakdowns. It is pure and order-independent: permuting the
// input never changes the result. An empty input yields zero totals and
// empty, non-nil breakdowns.
func Summarize(transactions []transaction.Transaction) summaryDatamodel.Summary {
	sum := summaryDatamodel.Summary{
		IncomeBreakdown:  make(map[string]float64),
		ExpenseBreakdown: make(map[string]float64),
		SavingsBreakdown: make(map[string]float64),
	}

	for _, t := range transactions {
		switch t.TransactionType {
		case transaction.TypeIncome:
			sum.TotalIncome += t.Amount
			sum.IncomeBreakdown[t.Category] += t.Amount
		case transaction.TypeExpense:
			sum.TotalExpense += t.Amount
			sum.ExpenseBreakdown[t.Category] += t.Amount
		case transaction.TypeSavings:
			sum.TotalSavings += t.Amount
			sum.SavingsBreakdown[t.Category] += t.Amount
		}
	}

	// Savings count as an outflow from disposable income.
	sum.NetBalance = sum.TotalIncome - sum.TotalExpense - sum.TotalSavings
	return sum
}

// ForPeriod filters transactions to those dated in the given month and year.
// Entries with unparseable dates are skipped rather than failing the whole
// aggregation.
func ForPeriod(transactions []transaction.Transaction, month, year int) []transaction.Transaction {
	out := make([]transaction.Transaction, 0, len(transactions))
	for _, t := range transactions {
		date, err := reconcile.ParseDate(t.Date)
		if err != nil {
			continue
		}
		if int(date.Month()) == month && date.Year() == year {
			out = append(out, t)
		}
	}
	return out
}

// OverallSavings is the all-time savings aggregate: total and per-category
// sums of savings transactions over the unbounded ledger. Categories that
// net to zero are dropped from the breakdown so they don't clutter the
// chart.
func OverallSavings(transactions []transaction.Transaction) summaryDatamodel.OverallSavings {
	sum := Summarize(transactions)

	breakdown := make(map[string]float64, len(sum.SavingsBreakdown))
	for category, amount := range sum.SavingsBreakdown {
		if amount != 0 {
			breakdown[category] = amount
		}
	}

	return summaryDatamodel.OverallSavings{
		TotalOverallSavings: sum.TotalSavings,
		SavingsBreakdown:    breakdown,
	}
}

// DailyBreakdown buckets a month's transactions by day for the daily flow
// chart, rows ordered by day. Unparseable dates are skipped.
func DailyBreakdown(transactions []transaction.Transaction) []summaryDatamodel.DailyFlow {
	byDay := make(map[int]*summaryDatamodel.DailyFlow)

	for _, t := range transactions {
		date, err := reconcile.ParseDate(t.Date)
		if err != nil {
			continue
		}

		day := date.Day()
		flow, ok := byDay[day]
		if !ok {
			flow = &summaryDatamodel.DailyFlow{Day: day}
			byDay[day] = flow
		}

		switch t.TransactionType {
		case transaction.TypeIncome:
			flow.Income += t.Amount
		case transaction.TypeExpense:
			flow.Expense += t.Amount
		case transaction.TypeSavings:
			flow.Savings += t.Amount
		}
	}

	days := make([]int, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Ints(days)

	out := make([]summaryDatamodel.DailyFlow, 0, len(days))
	for _, day := range days {
		out = append(out, *byDay[day])
	}
	return out
}
