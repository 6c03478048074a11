package core

import "sort"

// Totals is the signed balance plus the income and expense sums of a
// transaction list. Expense is reported as a non-negative magnitude.
type Totals struct {
	Balance Money
	Income  Money
	Expense Money
}

// CategoryTotal is a summed expense magnitude for one category.
type CategoryTotal struct {
	Category string
	Total    Money
}

// ChartScale carries the y-axis gradations for the category bar chart.
// Ticks run from max down to zero in five equal linear steps.
type ChartScale struct {
	Max   Money
	Ticks [6]Money
}

// ComputeTotals sums a transaction list into balance, income and expense.
// The result depends only on the multiset of amounts; order is irrelevant.
// An empty list yields all zeros.
func ComputeTotals(txs []Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		t.Balance.Cents += tx.Amount.Cents
		if tx.Amount.Cents > 0 {
			t.Income.Cents += tx.Amount.Cents
		} else {
			t.Expense.Cents -= tx.Amount.Cents
		}
	}
	return t
}

// ComputeCategoryBreakdown groups expense transactions by category and sums
// their magnitudes, sorted descending. Income transactions contribute
// nothing. Ties keep the order in which categories were first encountered
// in the input, so the result is deterministic for a given list.
func ComputeCategoryBreakdown(txs []Transaction) []CategoryTotal {
	sums := make(map[string]int64)
	var order []string
	for _, tx := range txs {
		if !tx.IsExpense() {
			continue
		}
		if _, seen := sums[tx.Category]; !seen {
			order = append(order, tx.Category)
		}
		sums[tx.Category] += -tx.Amount.Cents
	}
	if len(order) == 0 {
		return nil
	}

	breakdown := make([]CategoryTotal, 0, len(order))
	for _, cat := range order {
		breakdown = append(breakdown, CategoryTotal{Category: cat, Total: Money{Cents: sums[cat]}})
	}
	sort.SliceStable(breakdown, func(i, j int) bool {
		return breakdown[i].Total.Cents > breakdown[j].Total.Cents
	})
	return breakdown
}

// ComputeChartScale derives the bar chart's y-axis from a breakdown:
// the maximum category magnitude and six tick values max*i/5 for i = 5..0.
// An empty breakdown yields a zero scale; callers must not divide by Max
// without checking it.
func ComputeChartScale(breakdown []CategoryTotal) ChartScale {
	var scale ChartScale
	for _, ct := range breakdown {
		if ct.Total.Cents > scale.Max.Cents {
			scale.Max = ct.Total
		}
	}
	for i := 0; i < len(scale.Ticks); i++ {
		step := int64(len(scale.Ticks)) - 1 - int64(i) // 5, 4, ..., 0
		scale.Ticks[i] = Money{Cents: scale.Max.Cents * step / 5}
	}
	return scale
}
